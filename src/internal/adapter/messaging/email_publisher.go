package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const failedRefundChargebackTemplate = "FAILED_REFUND_CHARGEBACK"

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EmailRequest asks the notification service to send a templated support email.
type EmailRequest struct {
	ID              string            `json:"id"`
	Template        string            `json:"template"`
	EntityID        int64             `json:"entityId"`
	InstitutionName string            `json:"institutionName"`
	TrackingNumber  string            `json:"trackingNumber"`
	Fields          map[string]string `json:"fields"`
	RequestedAt     time.Time         `json:"requestedAt"`
}

type EmailPublisher struct {
	conn       *amqp.Connection
	channel    amqpPublisher
	exchange   string
	routingKey string
}

func NewEmailPublisher(url, exchange, routingKey string) (*EmailPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	logger.Info("email publisher initialized", logger.Fields{"exchange": exchange, "routingKey": routingKey})
	return &EmailPublisher{conn: conn, channel: channel, exchange: exchange, routingKey: routingKey}, nil
}

func newEmailPublisher(channel amqpPublisher, exchange, routingKey string) *EmailPublisher {
	return &EmailPublisher{channel: channel, exchange: exchange, routingKey: routingKey}
}

func (p *EmailPublisher) SendFailedRefundChargeback(ctx context.Context, tx domain.Transaction, entity domain.EntityAccount, message string) error {
	req := EmailRequest{
		ID:              uuid.NewString(),
		Template:        failedRefundChargebackTemplate,
		EntityID:        entity.ID,
		InstitutionName: entity.InstitutionName,
		TrackingNumber:  tx.TrackingNumber,
		Fields: map[string]string{
			"externalTrackingNumber": tx.ExternalTrackingNumber,
			"amount":                 tx.Amount.StringFixed(2),
			"individualName":         tx.IndividualName,
			"message":                message,
		},
		RequestedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.ID,
		Timestamp:    req.RequestedAt,
		Body:         body,
	}); err != nil {
		logger.Error("email publish failed", err, logger.Fields{"trackingNumber": tx.TrackingNumber})
		return &domain.NotificationError{Channel: "email", Err: err}
	}
	return nil
}

func (p *EmailPublisher) Close() error {
	if closer, ok := p.channel.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
