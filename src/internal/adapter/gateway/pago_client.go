package gateway

import (
	"context"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

const (
	pagoInsufficientFunds = "51"
	pagoExpiredCard       = "54"
)

type PagoClient struct {
	client jsonClient
}

func NewPagoClient(baseURL string, timeout time.Duration) *PagoClient {
	return &PagoClient{client: newJSONClient(baseURL, timeout)}
}

type pagoRefundRequest struct {
	TransactionHistoryID string `json:"transactionHistoryId"`
	MerchantProfileID    int64  `json:"merchantProfileId"`
	PaymentMethodID      string `json:"paymentMethodId"`
}

type pagoRefundResponse struct {
	Code            string `json:"code"`
	RespMsg         string `json:"respMsg"`
	PNRef           string `json:"pnRef"`
	AlreadyRefunded bool   `json:"alreadyRefunded"`
}

func (c *PagoClient) Family() domain.GatewayFamily {
	return domain.GatewayFamilyPago
}

func (c *PagoClient) GatewayTransactionID(detail domain.ProcessingDetail) string {
	return detail.TransactionHistoryID
}

func (c *PagoClient) IsDecline(resp domain.GatewayResponse) bool {
	return resp.ResultCode == pagoInsufficientFunds
}

func (c *PagoClient) IsSoftFailure(resp domain.GatewayResponse) bool {
	return resp.ResultCode == pagoInsufficientFunds || resp.ResultCode == pagoExpiredCard
}

func (c *PagoClient) VoidOrRefund(ctx context.Context, req domain.GatewayRequest) (*domain.GatewayResponse, error) {
	var resp pagoRefundResponse
	if err := c.client.post(ctx, "/api/refunds", pagoRefundRequest{
		TransactionHistoryID: req.GatewayTransactionID,
		MerchantProfileID:    req.MerchantProfileID,
		PaymentMethodID:      req.PaymentMethodID,
	}, &resp); err != nil {
		return nil, err
	}

	return &domain.GatewayResponse{
		ResultCode:      resp.Code,
		Message:         resp.RespMsg,
		Reference:       resp.PNRef,
		AlreadyRefunded: resp.AlreadyRefunded,
	}, nil
}
