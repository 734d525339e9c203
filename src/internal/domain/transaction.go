package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindACH  TransactionKind = "ACH"
	TransactionKindCard TransactionKind = "CARD"
)

type PaymentType string

const (
	PaymentTypeCreditCard       PaymentType = "CREDIT_CARD"
	PaymentTypeDebitCard        PaymentType = "DEBIT_CARD"
	PaymentTypeDebitPinAcculynk PaymentType = "DEBIT_PIN_ACCULYNK"
	PaymentTypeACH              PaymentType = "ACH"
)

type Transaction struct {
	Key                    int64
	TrackingNumber         string
	ExternalTrackingNumber string
	EntityID               int64
	Kind                   TransactionKind
	PaymentType            PaymentType
	Status                 TransactionStatus
	Amount                 decimal.Decimal
	IndividualName         string
	RoutingNumber          string
	AccountType            string
	AccountNumber          string
	BatchID                string
	PaymentSourceID        int64
	ClientDebitProfileID   string
	EffectiveDate          time.Time
	Version                int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ClientDebited reports whether the owning entity was debited by settlement for this payment.
func (t Transaction) ClientDebited() bool {
	return t.ClientDebitProfileID != ""
}

func (t Transaction) IsPinDebit() bool {
	return t.PaymentType == PaymentTypeDebitPinAcculynk
}

type SplitPayment struct {
	ID                   int64
	TransactionKey       int64
	TrackingNumber       string
	ApplyToAccountNumber string
	Amount               decimal.Decimal
	PartyMemberID        string
}

// EntityAccount is the client institution that owns transactions.
type EntityAccount struct {
	ID                      int64
	InstitutionName         string
	RoutingNumber           string
	SettlementAccountType   string
	SettlementAccountNumber string
	ACHCustomerNumber       string
	BankNumber              string
	HandlesCards            bool
	PaymentRunTime          string
}

type ProcessingDetail struct {
	TransactionKey       int64
	TransactionID        string
	TransactionHistoryID string
	MerchantProfileID    string
	PaymentMethodID      string
}

type Notification struct {
	ID             int64
	TransactionKey int64
	PrintStatus    string
}

const NotificationPrintPending = "Pending"

// Actor is the authenticated requester. Authorization happens upstream.
type Actor struct {
	UserID          int64
	Name            string
	PortalAccountID int64
}

const SystemActor = "System"

type StatusUpdate struct {
	Key             int64
	Status          TransactionStatus
	Actor           string
	ExpectedVersion int64
}
