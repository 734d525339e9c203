package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertPendingAchReversal AlertType = "PENDING_ACH_REVERSAL"
	AlertRefundUpdateFailed AlertType = "REFUND_UPDATE_FAILED"
	AlertFailedCardRefund   AlertType = "FAILED_CARD_REFUND"
)

type AlertDetails struct {
	TrackingNumber  string          `json:"trackingNumber"`
	PortalAccountID int64           `json:"portalAccountId"`
	EntityID        int64           `json:"entityId,omitempty"`
	AccountName     string          `json:"accountName,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	EffectiveDate   time.Time       `json:"effectiveDate,omitempty"`
	IndividualName  string          `json:"individualName,omitempty"`
	CustomerNumber  string          `json:"customerNumber,omitempty"`
	BatchID         string          `json:"batchId,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}
