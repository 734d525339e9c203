package postgres

import (
	"database/sql"
	"errors"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

func isCheckViolation(err error) bool {
	return pqCode(err) == checkViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}
