package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/google/uuid"
)

// CoreMessageRepository is the outbox of postings for credit union cores. Account
// numbers are stored encrypted.
type CoreMessageRepository struct {
	db     *sql.DB
	cipher domain.AccountCipher
}

func NewCoreMessageRepository(db *sql.DB, cipher domain.AccountCipher) *CoreMessageRepository {
	return &CoreMessageRepository{db: db, cipher: cipher}
}

func (r *CoreMessageRepository) Post(ctx context.Context, event domain.CoreEvent) error {
	logger.Info("core message repository post", logger.Fields{
		"type":           event.Type,
		"transactionKey": event.TransactionKey,
		"trackingNumber": event.TrackingNumber,
	})

	return r.insert(ctx, domain.CoreMessage{
		ID:              uuid.New(),
		Type:            event.Type,
		Status:          domain.CorePostPending,
		TransactionKey:  event.TransactionKey,
		TrackingNumber:  event.TrackingNumber,
		Actor:           event.Actor,
		PortalAccountID: event.PortalAccountID,
		CreatedAt:       time.Now().UTC(),
	}, string(event.Status))
}

func (r *CoreMessageRepository) SaveMessage(ctx context.Context, msg domain.CoreMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.AccountNumber != "" {
		encrypted, err := r.cipher.Encrypt(msg.AccountNumber)
		if err != nil {
			return fmt.Errorf("encrypt core message account number: %w", err)
		}
		msg.AccountNumber = encrypted
	}
	return r.insert(ctx, msg, "")
}

func (r *CoreMessageRepository) insert(ctx context.Context, msg domain.CoreMessage, transactionStatus string) error {
	const query = `
WITH message AS (
	INSERT INTO core_messages (
		id,
		message_type,
		status,
		transaction_key,
		split_payment_id,
		tracking_number,
		account_number,
		amount,
		party_member_id,
		payment_source_id,
		transaction_status,
		actor,
		portal_account_id,
		created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)
	RETURNING id, status, actor, portal_account_id
)
INSERT INTO core_message_history (message_id, status, actor, portal_account_id)
SELECT id, status, actor, portal_account_id FROM message`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		msg.ID,
		string(msg.Type),
		string(msg.Status),
		msg.TransactionKey,
		msg.SplitPaymentID,
		msg.TrackingNumber,
		msg.AccountNumber,
		msg.Amount,
		msg.PartyMemberID,
		msg.PaymentSourceID,
		transactionStatus,
		msg.Actor,
		msg.PortalAccountID,
		msg.CreatedAt,
	); err != nil {
		logger.Error("core message repository insert failed", err, logger.Fields{
			"type":           msg.Type,
			"transactionKey": msg.TransactionKey,
		})
		return fmt.Errorf("insert core message: %w", err)
	}
	return nil
}

// MarkNotApplicable retires every pending message of a transaction and records the
// change in the message history.
func (r *CoreMessageRepository) MarkNotApplicable(ctx context.Context, key int64, actor string, portalAccountID int64) error {
	const query = `
WITH retired AS (
	UPDATE core_messages
	SET status = $2,
	    updated_at = NOW()
	WHERE transaction_key = $1
	  AND status = $3
	RETURNING id
)
INSERT INTO core_message_history (message_id, status, actor, portal_account_id)
SELECT id, $2::varchar, $4::varchar, $5::bigint FROM retired`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		key,
		string(domain.CorePostNotApplicable),
		string(domain.CorePostPending),
		actor,
		portalAccountID,
	); err != nil {
		logger.Error("core message repository mark not applicable failed", err, logger.Fields{"transactionKey": key})
		return fmt.Errorf("mark core messages not applicable: %w", err)
	}
	return nil
}
