package gateway

import (
	"context"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

// CardRefundClient refunds settled card and PIN debit payments.
type CardRefundClient struct {
	client jsonClient
}

func NewCardRefundClient(baseURL string, timeout time.Duration) *CardRefundClient {
	return &CardRefundClient{client: newJSONClient(baseURL, timeout)}
}

type cardRefundRequest struct {
	TransactionKey         int64  `json:"transactionKey"`
	TrackingNumber         string `json:"trackingNumber"`
	ExternalTrackingNumber string `json:"externalTrackingNumber"`
	Amount                 string `json:"amount"`
	Label                  string `json:"label"`
	RequestedBy            string `json:"requestedBy"`
}

type cardRefundResponse struct {
	Result  string `json:"result"`
	RespMsg string `json:"respMsg"`
	PNRef   string `json:"pnRef"`
}

func (c *CardRefundClient) Refund(ctx context.Context, req domain.CardRefundRequest) (*domain.GatewayResponse, error) {
	path := "/refunds/card"
	if req.PinDebit {
		path = "/refunds/pin-debit"
	}

	var resp cardRefundResponse
	if err := c.client.post(ctx, path, cardRefundRequest{
		TransactionKey:         req.Transaction.Key,
		TrackingNumber:         req.Transaction.TrackingNumber,
		ExternalTrackingNumber: req.Transaction.ExternalTrackingNumber,
		Amount:                 req.Transaction.Amount.StringFixed(2),
		Label:                  req.Label,
		RequestedBy:            req.Actor,
	}, &resp); err != nil {
		return nil, err
	}

	return &domain.GatewayResponse{
		ResultCode: resp.Result,
		Message:    resp.RespMsg,
		Reference:  resp.PNRef,
	}, nil
}
