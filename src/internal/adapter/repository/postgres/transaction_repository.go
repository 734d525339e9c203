package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	key,
	tracking_number,
	external_tracking_number,
	entity_id,
	kind,
	payment_type,
	status,
	amount,
	individual_name,
	routing_number,
	account_type,
	account_number,
	batch_id,
	payment_source_id,
	client_debit_profile_id,
	effective_date,
	version,
	created_at,
	updated_at`

func (r *TransactionRepository) GetByKey(ctx context.Context, key int64) (domain.Transaction, error) {
	return r.getOne(ctx, "key", `SELECT`+transactionColumns+` FROM transactions WHERE key = $1`, key)
}

func (r *TransactionRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (domain.Transaction, error) {
	return r.getOne(ctx, "tracking number", `SELECT`+transactionColumns+`
FROM transactions
WHERE tracking_number = $1
ORDER BY key DESC
LIMIT 1`, trackingNumber)
}

func (r *TransactionRepository) GetByExternalTrackingNumber(ctx context.Context, externalTrackingNumber string) (domain.Transaction, error) {
	return r.getOne(ctx, "external tracking number", `SELECT`+transactionColumns+`
FROM transactions
WHERE external_tracking_number = $1
ORDER BY key DESC
LIMIT 1`, externalTrackingNumber)
}

func (r *TransactionRepository) getOne(ctx context.Context, by string, query string, arg any) (domain.Transaction, error) {
	var tx domain.Transaction
	if err := scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query, arg), &tx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{"by": by})
		return domain.Transaction{}, fmt.Errorf("get transaction by %s: %w", by, err)
	}
	return tx, nil
}

// UpdateStatus applies a status change. A zero ExpectedVersion skips the version check.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, update domain.StatusUpdate) (bool, error) {
	logger.Info("transaction repository update status", logger.Fields{
		"key":             update.Key,
		"status":          update.Status,
		"expectedVersion": update.ExpectedVersion,
	})

	const query = `
UPDATE transactions
SET status = $2,
    updated_by = $3,
    version = version + 1,
    updated_at = NOW()
WHERE key = $1
  AND ($4::bigint = 0 OR version = $4::bigint)`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, update.Key, string(update.Status), update.Actor, update.ExpectedVersion)
	if err != nil {
		logger.Error("transaction repository update status failed", err, logger.Fields{"key": update.Key})
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	return affected(result)
}

func (r *TransactionRepository) UpdateTransaction(ctx context.Context, tx domain.Transaction, actor string) (bool, error) {
	logger.Info("transaction repository update transaction", logger.Fields{
		"key":                    tx.Key,
		"status":                 tx.Status,
		"externalTrackingNumber": tx.ExternalTrackingNumber,
	})

	const query = `
UPDATE transactions
SET status = $2,
    external_tracking_number = $3,
    updated_by = $4,
    version = version + 1,
    updated_at = NOW()
WHERE key = $1
  AND ($5::bigint = 0 OR version = $5::bigint)`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, tx.Key, string(tx.Status), tx.ExternalTrackingNumber, actor, tx.Version)
	if err != nil {
		logger.Error("transaction repository update transaction failed", err, logger.Fields{"key": tx.Key})
		return false, fmt.Errorf("update transaction: %w", err)
	}
	return affected(result)
}

func (r *TransactionRepository) SplitPayments(ctx context.Context, key int64) ([]domain.SplitPayment, error) {
	const query = `
SELECT id, transaction_key, tracking_number, apply_to_account_number, amount, party_member_id
FROM split_payments
WHERE transaction_key = $1
ORDER BY id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("query split payments: %w", err)
	}
	defer rows.Close()

	var splits []domain.SplitPayment
	for rows.Next() {
		var split domain.SplitPayment
		if err := rows.Scan(
			&split.ID,
			&split.TransactionKey,
			&split.TrackingNumber,
			&split.ApplyToAccountNumber,
			&split.Amount,
			&split.PartyMemberID,
		); err != nil {
			return nil, fmt.Errorf("scan split payment: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split payments: %w", err)
	}
	return splits, nil
}

func (r *TransactionRepository) UpdateSplitPaymentTrackingNumbers(ctx context.Context, key int64, trackingNumber string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE split_payments SET tracking_number = $2 WHERE transaction_key = $1`, key, trackingNumber); err != nil {
		logger.Error("transaction repository update split payments failed", err, logger.Fields{"key": key})
		return fmt.Errorf("update split payment tracking numbers: %w", err)
	}
	return nil
}

func scanTransaction(row rowScanner, tx *domain.Transaction) error {
	var kind, paymentType, status string
	if err := row.Scan(
		&tx.Key,
		&tx.TrackingNumber,
		&tx.ExternalTrackingNumber,
		&tx.EntityID,
		&kind,
		&paymentType,
		&status,
		&tx.Amount,
		&tx.IndividualName,
		&tx.RoutingNumber,
		&tx.AccountType,
		&tx.AccountNumber,
		&tx.BatchID,
		&tx.PaymentSourceID,
		&tx.ClientDebitProfileID,
		&tx.EffectiveDate,
		&tx.Version,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return err
	}
	tx.Kind = domain.TransactionKind(kind)
	tx.PaymentType = domain.PaymentType(paymentType)
	tx.Status = domain.TransactionStatus(status)
	return nil
}

func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected: %w", err)
	}
	return rows > 0, nil
}
