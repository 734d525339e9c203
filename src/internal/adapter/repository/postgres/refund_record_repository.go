package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

type RefundRecordRepository struct {
	db *sql.DB
}

func NewRefundRecordRepository(db *sql.DB) *RefundRecordRepository {
	return &RefundRecordRepository{db: db}
}

func (r *RefundRecordRepository) Insert(ctx context.Context, record domain.RefundRecord) error {
	const query = `
INSERT INTO refund_records (transaction_key, record_type, result_code, message, reference, comment)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		record.TransactionKey,
		record.Type,
		record.ResultCode,
		record.Message,
		record.Reference,
		record.Comment,
	); err != nil {
		logger.Error("refund record insert failed", err, logger.Fields{"transactionKey": record.TransactionKey})
		return fmt.Errorf("insert refund record: %w", err)
	}
	return nil
}

// GetApproved returns the latest approved record for the transaction, or nil.
func (r *RefundRecordRepository) GetApproved(ctx context.Context, key int64) (*domain.RefundRecord, error) {
	const query = `
SELECT transaction_key, record_type, result_code, message, reference, comment
FROM refund_records
WHERE transaction_key = $1 AND result_code = $2
ORDER BY id DESC
LIMIT 1`

	var rec domain.RefundRecord
	err := conn(ctx, r.db).QueryRowContext(ctx, query, key, domain.CardRefundApprovedCode).Scan(
		&rec.TransactionKey,
		&rec.Type,
		&rec.ResultCode,
		&rec.Message,
		&rec.Reference,
		&rec.Comment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get approved refund record: %w", err)
	}
	return &rec, nil
}
