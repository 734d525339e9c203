package gateway

import (
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

// Router picks the gateway client for the processor that issued a tracking number.
type Router struct {
	clients map[domain.GatewayFamily]domain.GatewayClient
}

func NewRouter(clients ...domain.GatewayClient) *Router {
	r := &Router{clients: make(map[domain.GatewayFamily]domain.GatewayClient, len(clients))}
	for _, client := range clients {
		if client != nil {
			r.clients[client.Family()] = client
		}
	}
	return r
}

func (r *Router) Resolve(externalTrackingNumber string) (domain.GatewayClient, error) {
	family, err := domain.ParseGatewayFamily(externalTrackingNumber)
	if err != nil {
		return nil, err
	}

	client, ok := r.clients[family]
	if !ok {
		return nil, fmt.Errorf("no gateway client registered for %s", family)
	}
	return client, nil
}
