package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

type AuditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	const query = `
INSERT INTO audit_log (id, subject, subject_key, actor, logged_at, action, comment, extra)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		string(entry.Subject),
		entry.Key,
		entry.Actor,
		entry.At,
		entry.Action,
		entry.Comment,
		entry.Extra,
	); err != nil {
		logger.Error("audit log append failed", err, logger.Fields{
			"subject": entry.Subject,
			"key":     entry.Key,
			"action":  entry.Action,
		})
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// Entries returns the log of one subject, oldest first.
func (r *AuditLogRepository) Entries(ctx context.Context, subject domain.AuditSubject, key int64) ([]domain.AuditLogEntry, error) {
	const query = `
SELECT id, subject, subject_key, actor, logged_at, action, comment, extra
FROM audit_log
WHERE subject = $1 AND subject_key = $2
ORDER BY logged_at, id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, string(subject), key)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var (
			entry domain.AuditLogEntry
			subj  string
		)
		if err := rows.Scan(&entry.ID, &subj, &entry.Key, &entry.Actor, &entry.At, &entry.Action, &entry.Comment, &entry.Extra); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entry.Subject = domain.AuditSubject(subj)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
