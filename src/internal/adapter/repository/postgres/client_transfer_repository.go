package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/lib/pq"
)

// Settlement return values. Codes prefixed with "^" are described in settlement_error_codes.
const (
	returnValueSuccess         = "1"
	returnInvalidRouting       = "^01"
	returnInvalidAmount        = "^02"
	returnDuplicateTracking    = "^03"
	returnTransferNotFound     = "^04"
	maxTrackingNumberAttempts  = 3
	routingNumberConstraint    = "chk_client_transfers_routing"
	reversalTrackingPrefix     = "REV"
	refundTrackingPrefix       = "REF"
	defaultTransferTrackPrefix = "WEB"
)

var (
	routingNumberFormat = regexp.MustCompile(`^[0-9]{9}$`)
	trackingCounter     uint32
)

// ClientTransferRepository records client money movement. It acts as the settlement
// subsystem for submissions and edits.
type ClientTransferRepository struct {
	db *sql.DB
}

func NewClientTransferRepository(db *sql.DB) *ClientTransferRepository {
	return &ClientTransferRepository{db: db}
}

func (r *ClientTransferRepository) SubmitTransfer(ctx context.Context, req domain.TransferRequest) (domain.ClientTransfer, error) {
	logger.Info("client transfer repository submit", logger.Fields{
		"entityId":   req.EntityID,
		"type":       req.Type,
		"systemCode": req.SystemCode,
		"amount":     req.Amount,
		"batchType":  req.BatchType,
	})

	if !routingNumberFormat.MatchString(strings.TrimSpace(req.RoutingNumber)) {
		return domain.ClientTransfer{}, &domain.SettlementError{ReturnValue: returnInvalidRouting}
	}
	if !req.Amount.IsPositive() {
		return domain.ClientTransfer{}, &domain.SettlementError{ReturnValue: returnInvalidAmount}
	}

	amount := req.Amount
	if req.SystemCode == domain.SystemCodeDebit {
		amount = amount.Neg()
	}

	const query = `
INSERT INTO client_transfers (
	tracking_number,
	entity_id,
	transfer_type,
	system_code,
	amount,
	routing_number,
	account_type,
	account_number,
	batch_type,
	description,
	source_app,
	customer_number,
	bank_number,
	source,
	source_key,
	source_tracking_number,
	submitted_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
)
RETURNING id, created_at`

	transfer := domain.ClientTransfer{
		EntityID:             req.EntityID,
		Type:                 req.Type,
		SystemCode:           req.SystemCode,
		Amount:               amount,
		RoutingNumber:        strings.TrimSpace(req.RoutingNumber),
		AccountType:          req.AccountType,
		AccountNumber:        req.AccountNumber,
		Description:          req.Description,
		SourceKey:            req.SourceKey,
		SourceTrackingNumber: req.SourceTrackingNumber,
	}

	var err error
	for attempt := 0; attempt < maxTrackingNumberAttempts; attempt++ {
		transfer.TrackingNumber = newTransferTrackingNumber(req, time.Now().UTC())
		err = conn(ctx, r.db).QueryRowContext(ctx, query,
			transfer.TrackingNumber,
			transfer.EntityID,
			string(transfer.Type),
			string(transfer.SystemCode),
			transfer.Amount,
			transfer.RoutingNumber,
			transfer.AccountType,
			transfer.AccountNumber,
			req.BatchType,
			transfer.Description,
			req.SourceApp,
			req.CustomerNumber,
			req.BankNumber,
			req.Source,
			req.SourceKey,
			req.SourceTrackingNumber,
			req.SubmittedAt,
		).Scan(&transfer.ID, &transfer.CreatedAt)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}

	if err != nil {
		logger.Error("client transfer repository submit failed", err, logger.Fields{"entityId": req.EntityID, "type": req.Type})
		if rv := settlementReturnValue(err); rv != "" {
			return domain.ClientTransfer{}, &domain.SettlementError{ReturnValue: rv, Err: err}
		}
		return domain.ClientTransfer{}, fmt.Errorf("submit client transfer: %w", err)
	}

	logger.Info("client transfer repository submit success", logger.Fields{
		"transferId":     transfer.ID,
		"trackingNumber": transfer.TrackingNumber,
	})
	return transfer, nil
}

func (r *ClientTransferRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (domain.ClientTransfer, error) {
	const query = `
SELECT
	id,
	tracking_number,
	entity_id,
	transfer_type,
	system_code,
	amount,
	routing_number,
	account_type,
	account_number,
	description,
	source_key,
	source_tracking_number,
	created_at
FROM client_transfers
WHERE tracking_number = $1`

	var (
		t            domain.ClientTransfer
		transferType string
		systemCode   string
	)
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, trackingNumber).Scan(
		&t.ID,
		&t.TrackingNumber,
		&t.EntityID,
		&transferType,
		&systemCode,
		&t.Amount,
		&t.RoutingNumber,
		&t.AccountType,
		&t.AccountNumber,
		&t.Description,
		&t.SourceKey,
		&t.SourceTrackingNumber,
		&t.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ClientTransfer{}, domain.ErrRecordNotFound
		}
		return domain.ClientTransfer{}, fmt.Errorf("get client transfer: %w", err)
	}
	t.Type = domain.TransferType(transferType)
	t.SystemCode = domain.SystemCode(systemCode)
	return t, nil
}

// UpdateTransfer edits a submitted transfer and returns the settlement return value.
// The stored sign of the amount is kept.
func (r *ClientTransferRepository) UpdateTransfer(ctx context.Context, edit domain.TransferEdit) (string, error) {
	logger.Info("client transfer repository update", logger.Fields{
		"trackingNumber": edit.TrackingNumber,
		"amount":         edit.Amount,
	})

	if !routingNumberFormat.MatchString(strings.TrimSpace(edit.RoutingNumber)) {
		return returnInvalidRouting, nil
	}
	if edit.Amount.IsZero() {
		return returnInvalidAmount, nil
	}

	const query = `
UPDATE client_transfers
SET amount = CASE WHEN amount < 0 THEN -ABS($2::numeric) ELSE ABS($2::numeric) END,
    routing_number = $3,
    account_type = $4,
    account_number = $5,
    updated_by = $6,
    updated_at = NOW()
WHERE tracking_number = $1`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		edit.TrackingNumber,
		edit.Amount,
		strings.TrimSpace(edit.RoutingNumber),
		edit.AccountType,
		edit.AccountNumber,
		edit.Actor,
	)
	if err != nil {
		if rv := settlementReturnValue(err); rv != "" {
			return rv, nil
		}
		logger.Error("client transfer repository update failed", err, logger.Fields{"trackingNumber": edit.TrackingNumber})
		return "", fmt.Errorf("update client transfer: %w", err)
	}

	ok, err := affected(result)
	if err != nil {
		return "", err
	}
	if !ok {
		return returnTransferNotFound, nil
	}
	return returnValueSuccess, nil
}

func (r *ClientTransferRepository) RecordResubmission(ctx context.Context, original domain.ClientTransfer, resubmitted domain.ClientTransfer, actor string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO client_transfer_resubmissions (original_id, resubmitted_id, actor)
VALUES ($1, $2, $3)`, original.ID, resubmitted.ID, actor); err != nil {
		logger.Error("client transfer repository record resubmission failed", err, logger.Fields{
			"originalId":    original.ID,
			"resubmittedId": resubmitted.ID,
		})
		return fmt.Errorf("record resubmission: %w", err)
	}
	return nil
}

func settlementReturnValue(err error) string {
	switch {
	case isUniqueViolation(err):
		return returnDuplicateTracking
	case isCheckViolation(err):
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == routingNumberConstraint {
			return returnInvalidRouting
		}
		return returnInvalidAmount
	default:
		return ""
	}
}

func newTransferTrackingNumber(req domain.TransferRequest, now time.Time) string {
	prefix := defaultTransferTrackPrefix
	switch {
	case req.Type == domain.TransferTypeClientReversal:
		prefix = reversalTrackingPrefix
	case req.Type == domain.TransferTypeClientRefund:
		prefix = refundTrackingPrefix
	case req.BatchType != "":
		prefix = strings.ToUpper(req.BatchType)
	}
	counter := atomic.AddUint32(&trackingCounter, 1) % 10000
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("060102150405"), counter)
}
