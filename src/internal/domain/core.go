package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CoreEventType string

const (
	CoreEventPayment             CoreEventType = "PAYMENT"
	CoreEventReversal            CoreEventType = "REVERSAL"
	CoreEventReversalNote        CoreEventType = "REVERSAL_NOTE"
	CoreEventReversalAccountNote CoreEventType = "REVERSAL_ACCOUNT_NOTE"
)

type CorePostStatus string

const (
	CorePostPending       CorePostStatus = "PENDING"
	CorePostNotApplicable CorePostStatus = "NOT_APPLICABLE"
)

// CoreMapping links an entity to its credit union core system.
type CoreMapping struct {
	EntityID                    int64  `json:"entityId"`
	PortalAccountID             int64  `json:"portalAccountId"`
	CoreID                      string `json:"coreId"`
	PostReversals               bool   `json:"postReversals"`
	PostReversalNotesToMembers  bool   `json:"postReversalNotesToMembers"`
	PostReversalNotesToAccounts bool   `json:"postReversalNotesToAccounts"`
}

func (m *CoreMapping) CoreEnabled() bool {
	return m != nil && m.CoreID != ""
}

type CoreEvent struct {
	Type            CoreEventType
	TransactionKey  int64
	TrackingNumber  string
	Status          TransactionStatus
	Actor           string
	PortalAccountID int64
}

// CoreMessage is one reconstructed posting for a split payment component.
type CoreMessage struct {
	ID              uuid.UUID
	Type            CoreEventType
	Status          CorePostStatus
	TransactionKey  int64
	SplitPaymentID  int64
	TrackingNumber  string
	AccountNumber   string
	Amount          decimal.Decimal
	PartyMemberID   string
	PaymentSourceID int64
	Actor           string
	PortalAccountID int64
	CreatedAt       time.Time
}
