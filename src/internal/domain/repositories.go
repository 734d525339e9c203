package domain

import (
	"context"
	"time"
)

// TransactionStore persists transactions and their split payments.
// Lookups return ErrRecordNotFound when nothing matches.
type TransactionStore interface {
	GetByKey(ctx context.Context, key int64) (Transaction, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (Transaction, error)
	GetByExternalTrackingNumber(ctx context.Context, externalTrackingNumber string) (Transaction, error)
	// UpdateStatus reports false when no row matched the key and expected version.
	UpdateStatus(ctx context.Context, update StatusUpdate) (bool, error)
	// UpdateTransaction writes status and external tracking number under the same version check.
	UpdateTransaction(ctx context.Context, tx Transaction, actor string) (bool, error)
	SplitPayments(ctx context.Context, key int64) ([]SplitPayment, error)
	UpdateSplitPaymentTrackingNumbers(ctx context.Context, key int64, trackingNumber string) error
}

type AuditLog interface {
	Append(ctx context.Context, entry AuditLogEntry) error
}

type EntityStore interface {
	GetEntityAccount(ctx context.Context, entityID int64) (EntityAccount, error)
}

type NotificationStore interface {
	GetByTransactionKey(ctx context.Context, key int64) (*Notification, error)
	Remove(ctx context.Context, id int64) error
	MarkPrintStatus(ctx context.Context, id int64, printStatus string) error
}

type ProcessingDetailStore interface {
	Get(ctx context.Context, key int64, externalTrackingNumber string) (*ProcessingDetail, error)
}

type RefundRecordStore interface {
	Insert(ctx context.Context, record RefundRecord) error
	GetApproved(ctx context.Context, key int64) (*RefundRecord, error)
}

type ErrorCodeStore interface {
	Describe(ctx context.Context, code string) (string, error)
}

type CoreMappingProvider interface {
	ByEntityID(ctx context.Context, entityID int64) (*CoreMapping, error)
}

// FundsMover submits money movement to the settlement subsystem. A rejection
// is returned as *SettlementError.
type FundsMover interface {
	SubmitTransfer(ctx context.Context, req TransferRequest) (ClientTransfer, error)
}

// SettlementStore maintains client transfers after they were created.
type SettlementStore interface {
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (ClientTransfer, error)
	// UpdateTransfer returns the settlement return value ("1" on success, "^code" on rejection).
	UpdateTransfer(ctx context.Context, edit TransferEdit) (string, error)
	RecordResubmission(ctx context.Context, original ClientTransfer, resubmitted ClientTransfer, actor string) error
}

type AlertNotifier interface {
	Post(ctx context.Context, alertType AlertType, details AlertDetails) error
	Delete(ctx context.Context, alertType AlertType, details AlertDetails, actorID int64) error
}

type CorePoster interface {
	Post(ctx context.Context, event CoreEvent) error
	SaveMessage(ctx context.Context, msg CoreMessage) error
	MarkNotApplicable(ctx context.Context, key int64, actor string, portalAccountID int64) error
}

type EmailNotifier interface {
	SendFailedRefundChargeback(ctx context.Context, tx Transaction, entity EntityAccount, message string) error
}

type CardRefunder interface {
	Refund(ctx context.Context, req CardRefundRequest) (*GatewayResponse, error)
}

type GatewayResolver interface {
	Resolve(externalTrackingNumber string) (GatewayClient, error)
}

type ReversalPolicyInput struct {
	Transaction  Transaction
	HandlesCards bool
	RunTime      string
	Now          time.Time
}

// ReversalPolicy decides whether a reversal, void or refund may still be performed.
type ReversalPolicy interface {
	Allow(ctx context.Context, in ReversalPolicyInput) bool
	RefundWindowExceeded(in ReversalPolicyInput) bool
}

type RoutingValidator interface {
	Valid(routingNumber string) bool
}

type AccountCipher interface {
	Decrypt(ciphertext string) (string, error)
	Encrypt(plaintext string) (string, error)
}

// TransactionManager runs fn inside one local database transaction carried by ctx.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
