package gateway

import (
	"context"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

type ProPayClient struct {
	client jsonClient
}

func NewProPayClient(baseURL string, timeout time.Duration) *ProPayClient {
	return &ProPayClient{client: newJSONClient(baseURL, timeout)}
}

type proPayVoidRefundRequest struct {
	TransactionID     string `json:"transactionId"`
	MerchantProfileID int64  `json:"merchantProfileId"`
	PaymentMethodID   string `json:"paymentMethodId"`
}

type proPayVoidRefundResponse struct {
	ResultCode      string `json:"resultCode"`
	ResultMessage   string `json:"resultMessage"`
	TransactionInfo struct {
		TransactionID   string `json:"transactionId"`
		AlreadyRefunded bool   `json:"alreadyRefunded"`
	} `json:"transactionInfo"`
}

func (c *ProPayClient) Family() domain.GatewayFamily {
	return domain.GatewayFamilyProPay
}

func (c *ProPayClient) GatewayTransactionID(detail domain.ProcessingDetail) string {
	return detail.TransactionID
}

func (c *ProPayClient) VoidOrRefund(ctx context.Context, req domain.GatewayRequest) (*domain.GatewayResponse, error) {
	var resp proPayVoidRefundResponse
	if err := c.client.post(ctx, "/v1/transactions/void-or-refund", proPayVoidRefundRequest{
		TransactionID:     req.GatewayTransactionID,
		MerchantProfileID: req.MerchantProfileID,
		PaymentMethodID:   req.PaymentMethodID,
	}, &resp); err != nil {
		return nil, err
	}

	return &domain.GatewayResponse{
		ResultCode:      resp.ResultCode,
		Message:         resp.ResultMessage,
		Reference:       resp.TransactionInfo.TransactionID,
		AlreadyRefunded: resp.TransactionInfo.AlreadyRefunded,
	}, nil
}
