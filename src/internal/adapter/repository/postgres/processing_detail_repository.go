package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

type ProcessingDetailRepository struct {
	db *sql.DB
}

func NewProcessingDetailRepository(db *sql.DB) *ProcessingDetailRepository {
	return &ProcessingDetailRepository{db: db}
}

// Get returns nil when the processor identifiers were never captured.
func (r *ProcessingDetailRepository) Get(ctx context.Context, key int64, externalTrackingNumber string) (*domain.ProcessingDetail, error) {
	const query = `
SELECT transaction_key, transaction_id, transaction_history_id, merchant_profile_id, payment_method_id
FROM processing_details
WHERE transaction_key = $1 AND external_tracking_number = $2`

	var d domain.ProcessingDetail
	err := conn(ctx, r.db).QueryRowContext(ctx, query, key, externalTrackingNumber).Scan(
		&d.TransactionKey,
		&d.TransactionID,
		&d.TransactionHistoryID,
		&d.MerchantProfileID,
		&d.PaymentMethodID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get processing detail: %w", err)
	}
	return &d, nil
}
