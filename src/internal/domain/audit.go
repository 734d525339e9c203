package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditSubject string

const (
	AuditSubjectTransaction    AuditSubject = "TRANSACTION"
	AuditSubjectClientTransfer AuditSubject = "CLIENT_TRANSFER"
)

const (
	ActionReversal         = "Reversal"
	ActionReversalComplete = "Reversal Completed"
	ActionSubmitted        = "Submitted"
	ActionNote             = "Note"
	ActionUpdated          = "Updated"
	ActionRefund           = "Refund"
	ActionEdit             = "Edit"
	ActionResubmitted      = "Resubmitted"
	ActionApproveReversal  = "Approve ACH reversal"
	ActionCorePosting      = "Core posting"
)

// AuditLogEntry is append-only evidence of what happened to a transaction or transfer.
type AuditLogEntry struct {
	ID      uuid.UUID
	Subject AuditSubject
	Key     int64
	Actor   string
	At      time.Time
	Action  string
	Comment string
	Extra   string
}

func NewTransactionLog(key int64, actor, action, comment string) AuditLogEntry {
	return AuditLogEntry{
		ID:      uuid.New(),
		Subject: AuditSubjectTransaction,
		Key:     key,
		Actor:   actor,
		At:      time.Now().UTC(),
		Action:  action,
		Comment: comment,
	}
}

func NewTransferLog(transferID int64, actor, action, comment string) AuditLogEntry {
	entry := NewTransactionLog(transferID, actor, action, comment)
	entry.Subject = AuditSubjectClientTransfer
	return entry
}
