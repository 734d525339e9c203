package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type ErrorCodeRepository struct {
	db *sql.DB
}

func NewErrorCodeRepository(db *sql.DB) *ErrorCodeRepository {
	return &ErrorCodeRepository{db: db}
}

// Describe returns domain.ErrRecordNotFound for codes without a description.
func (r *ErrorCodeRepository) Describe(ctx context.Context, code string) (string, error) {
	var description string
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT description FROM settlement_error_codes WHERE code = $1`, strings.TrimSpace(code)).Scan(&description)
	if err != nil {
		return "", fmt.Errorf("describe settlement error code %s: %w", code, notFound(err))
	}
	return description, nil
}
