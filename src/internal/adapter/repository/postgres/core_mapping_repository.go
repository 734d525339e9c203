package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

type CoreMappingRepository struct {
	db *sql.DB
}

func NewCoreMappingRepository(db *sql.DB) *CoreMappingRepository {
	return &CoreMappingRepository{db: db}
}

// ByEntityID returns nil for entities that are not connected to a core.
func (r *CoreMappingRepository) ByEntityID(ctx context.Context, entityID int64) (*domain.CoreMapping, error) {
	const query = `
SELECT entity_id, portal_account_id, core_id, post_reversals, post_reversal_notes_to_members, post_reversal_notes_to_accounts
FROM core_mappings
WHERE entity_id = $1`

	var m domain.CoreMapping
	err := conn(ctx, r.db).QueryRowContext(ctx, query, entityID).Scan(
		&m.EntityID,
		&m.PortalAccountID,
		&m.CoreID,
		&m.PostReversals,
		&m.PostReversalNotesToMembers,
		&m.PostReversalNotesToAccounts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get core mapping: %w", err)
	}
	return &m, nil
}
