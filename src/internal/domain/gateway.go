package domain

import (
	"context"
	"fmt"
	"strings"
)

type GatewayFamily string

const (
	GatewayFamilyProPay GatewayFamily = "PROPAY"
	GatewayFamilyPago   GatewayFamily = "PAGO"
)

const (
	ProPayTrackingPrefix = "V"
	PagoTrackingPrefix   = "A"
)

// RefundResponseMessage is the processor message for an accepted void/refund.
const RefundResponseMessage = "Refund"

// CardRefundApprovedCode is the result code of an approved direct card refund.
const CardRefundApprovedCode = "0"

func ParseGatewayFamily(externalTrackingNumber string) (GatewayFamily, error) {
	tn := strings.TrimSpace(externalTrackingNumber)
	switch {
	case tn == "":
		return "", fmt.Errorf("empty external tracking number")
	case strings.HasPrefix(strings.ToUpper(tn), ProPayTrackingPrefix):
		return GatewayFamilyProPay, nil
	case strings.HasPrefix(strings.ToUpper(tn), PagoTrackingPrefix):
		return GatewayFamilyPago, nil
	default:
		return "", fmt.Errorf("tracking number %q does not belong to a known processor", tn)
	}
}

type GatewayRequest struct {
	TransactionKey         int64
	ExternalTrackingNumber string
	GatewayTransactionID   string
	MerchantProfileID      int64
	PaymentMethodID        string
}

type GatewayResponse struct {
	ResultCode      string `json:"resultCode"`
	Message         string `json:"message"`
	Reference       string `json:"reference"`
	AlreadyRefunded bool   `json:"alreadyRefunded"`
}

func (r GatewayResponse) Refunded() bool {
	return r.Message == RefundResponseMessage
}

type GatewayClient interface {
	Family() GatewayFamily
	VoidOrRefund(ctx context.Context, req GatewayRequest) (*GatewayResponse, error)
}

// ResponseClassifier is implemented by gateway clients whose processor reports
// declines with dedicated result codes.
type ResponseClassifier interface {
	IsDecline(resp GatewayResponse) bool
	IsSoftFailure(resp GatewayResponse) bool
}

// ParameterResolver picks the stored identifier a processor expects as its transaction id.
type ParameterResolver interface {
	GatewayTransactionID(detail ProcessingDetail) string
}

type CardRefundRequest struct {
	Transaction Transaction
	PinDebit    bool
	Label       string
	Actor       string
}

type RefundRecord struct {
	TransactionKey int64
	Type           string
	ResultCode     string
	Message        string
	Reference      string
	Comment        string
}

// RefundRecordTypeVoid marks a refund record produced by a void rather than a refund.
const RefundRecordTypeVoid = "v"
