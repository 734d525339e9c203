package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferType string

const (
	TransferTypeClientReversal     TransferType = "CLIENT_REVERSAL"
	TransferTypeClientRefund       TransferType = "CLIENT_REFUND"
	TransferTypeClientResubmission TransferType = "CLIENT_RESUBMISSION"
)

type SystemCode string

const (
	SystemCodeDebit  SystemCode = "AS400DEBIT"
	SystemCodeCredit SystemCode = "AS400CREDIT"
)

const (
	BatchTypeACHSettlement = "CCD"
	BatchTypeLoanLevel     = "LLC"
	SourceAppPortal        = "PORTAL"
	SourceOnline           = "ONLINE"
)

// ClientTransfer is a committed money movement. Negative amounts are debits.
type ClientTransfer struct {
	ID                   int64
	TrackingNumber       string
	EntityID             int64
	Type                 TransferType
	SystemCode           SystemCode
	Amount               decimal.Decimal
	RoutingNumber        string
	AccountType          string
	AccountNumber        string
	Description          string
	SourceKey            int64
	SourceTrackingNumber string
	CreatedAt            time.Time
}

func (t ClientTransfer) IsDebit() bool {
	return t.Amount.IsNegative()
}

// TransferRequest is a money movement instruction for the settlement subsystem.
// Amount is unsigned. SystemCode decides the direction.
type TransferRequest struct {
	EntityID             int64
	Type                 TransferType
	Amount               decimal.Decimal
	RoutingNumber        string
	AccountType          string
	AccountNumber        string
	BatchType            string
	Description          string
	SourceApp            string
	SystemCode           SystemCode
	CustomerNumber       string
	BankNumber           string
	SubmittedAt          time.Time
	Source               string
	SourceKey            int64
	SourceTrackingNumber string
}

type TransferEdit struct {
	TrackingNumber string
	Amount         decimal.Decimal
	RoutingNumber  string
	AccountType    string
	AccountNumber  string
	Actor          string
}
