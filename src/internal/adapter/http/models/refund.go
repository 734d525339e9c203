package models

import "strings"

type VoidRefundRequest struct {
	GatewayTransactionID   string `json:"gatewayTransactionId"`
	MerchantProfileID      string `json:"merchantProfileId"`
	PaymentMethodID        string `json:"paymentMethodId"`
	ExternalTrackingNumber string `json:"externalTrackingNumber"`
}

func (r VoidRefundRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.ExternalTrackingNumber) == "" {
		errs = append(errs, "externalTrackingNumber is required")
	}
	if id := strings.TrimSpace(r.MerchantProfileID); id != "" && !digitsOnly(id) {
		errs = append(errs, "merchantProfileId must be numeric")
	}
	return joinErrors(errs)
}
