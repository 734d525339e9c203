package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// GetByTransactionKey returns nil when the transaction has no notification.
func (r *NotificationRepository) GetByTransactionKey(ctx context.Context, key int64) (*domain.Notification, error) {
	var n domain.Notification
	err := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id, transaction_key, print_status
FROM notifications
WHERE transaction_key = $1
ORDER BY id DESC
LIMIT 1`, key).Scan(&n.ID, &n.TransactionKey, &n.PrintStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) Remove(ctx context.Context, id int64) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkPrintStatus(ctx context.Context, id int64, printStatus string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET print_status = $2 WHERE id = $1`, id, printStatus); err != nil {
		return fmt.Errorf("mark notification print status: %w", err)
	}
	return nil
}
