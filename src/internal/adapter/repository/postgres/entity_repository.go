package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

type EntityRepository struct {
	db *sql.DB
}

func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) GetEntityAccount(ctx context.Context, entityID int64) (domain.EntityAccount, error) {
	const query = `
SELECT
	id,
	institution_name,
	routing_number,
	settlement_account_type,
	settlement_account_number,
	ach_customer_number,
	bank_number,
	handles_cards,
	payment_run_time
FROM entity_accounts
WHERE id = $1`

	var entity domain.EntityAccount
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, entityID).Scan(
		&entity.ID,
		&entity.InstitutionName,
		&entity.RoutingNumber,
		&entity.SettlementAccountType,
		&entity.SettlementAccountNumber,
		&entity.ACHCustomerNumber,
		&entity.BankNumber,
		&entity.HandlesCards,
		&entity.PaymentRunTime,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EntityAccount{}, domain.ErrRecordNotFound
		}
		logger.Error("entity repository get failed", err, logger.Fields{"entityId": entityID})
		return domain.EntityAccount{}, fmt.Errorf("get entity account: %w", err)
	}
	return entity, nil
}
