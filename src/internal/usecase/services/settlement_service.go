package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	invalidRoutingNumberMessage = "Routing Number is invalid."
	settlementUnexpectedError   = "Unable to update the settlement transaction right now. " + contactSupport
	settlementCommentsNotStored = "Transaction has been submitted but the comments were not stored. " + contactSupport
	generalLedgerAccountType    = "G"
)

var (
	settlementPrefixes = []string{"CCD", "LLC", "WEB"}
	reversalPrefixes   = []string{"REV", "REF", "RET"}
)

type SettlementEditCommand struct {
	TrackingNumber string
	Amount         decimal.Decimal
	RoutingNumber  string
	AccountType    string
	AccountNumber  string
	Comments       string
	Changes        string
	Actor          domain.Actor
}

type SettlementResubmitCommand struct {
	TrackingNumber string
	RoutingNumber  string
	AccountType    string
	AccountNumber  string
	Comments       string
	Actor          domain.Actor
}

type SettlementService struct {
	settlements domain.SettlementStore
	funds       domain.FundsMover
	auditLog    domain.AuditLog
	entities    domain.EntityStore
	routing     domain.RoutingValidator
	errorCodes  domain.ErrorCodeStore
	now         func() time.Time
}

func NewSettlementService(
	settlements domain.SettlementStore,
	funds domain.FundsMover,
	auditLog domain.AuditLog,
	entities domain.EntityStore,
	routing domain.RoutingValidator,
	errorCodes domain.ErrorCodeStore,
) *SettlementService {
	return &SettlementService{
		settlements: settlements,
		funds:       funds,
		auditLog:    auditLog,
		entities:    entities,
		routing:     routing,
		errorCodes:  errorCodes,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *SettlementService) EditSettlement(ctx context.Context, cmd SettlementEditCommand) domain.Outcome {
	const operation = "edit_settlement"
	fields := logger.Fields{"trackingNumber": cmd.TrackingNumber, "userId": cmd.Actor.UserID}
	logger.Info("settlement service edit settlement", fields)

	if !s.routing.Valid(cmd.RoutingNumber) {
		return observeOutcome(operation, domain.Failed(invalidRoutingNumberMessage, domain.NewValidationError(invalidRoutingNumberMessage)))
	}

	transfer, err := s.settlements.GetByTrackingNumber(ctx, strings.TrimSpace(cmd.TrackingNumber))
	if err != nil {
		if isNotFound(err) {
			return observeOutcome(operation, domain.InvalidRequest())
		}
		logger.Error("settlement service load transfer failed", err, fields)
		return observeOutcome(operation, domain.Failed(settlementUnexpectedError, err))
	}

	actor := actorName(cmd.Actor)
	returnValue, err := s.settlements.UpdateTransfer(ctx, domain.TransferEdit{
		TrackingNumber: transfer.TrackingNumber,
		Amount:         cmd.Amount,
		RoutingNumber:  strings.TrimSpace(cmd.RoutingNumber),
		AccountType:    strings.TrimSpace(cmd.AccountType),
		AccountNumber:  strings.TrimSpace(cmd.AccountNumber),
		Actor:          actor,
	})
	if err != nil {
		logger.Error("settlement service update transfer failed", err, fields)
		return observeOutcome(operation, domain.Failed(settlementUnexpectedError, err))
	}
	if description := describeReturnValue(ctx, s.errorCodes, returnValue); description != "" {
		return observeOutcome(operation, domain.Failed(description, &domain.SettlementError{ReturnValue: returnValue}))
	}

	comment := "Transaction Edited: " + strings.TrimSpace(cmd.Comments) + " - What Changed: " + strings.TrimSpace(cmd.Changes)
	if err := s.auditLog.Append(ctx, domain.NewTransferLog(transfer.ID, actor, domain.ActionEdit, comment)); err != nil {
		logger.Error("settlement service edit log failed", err, fields)
		return observeOutcome(operation, domain.Failed(
			"The settlement transaction was updated but the comments were not stored. "+contactSupport,
			&domain.PersistenceError{Op: "append edit log", Err: err},
		))
	}

	return observeOutcome(operation, domain.Succeeded())
}

func (s *SettlementService) ResubmitSettlement(ctx context.Context, cmd SettlementResubmitCommand) domain.Outcome {
	const operation = "resubmit_settlement"
	fields := logger.Fields{"trackingNumber": cmd.TrackingNumber, "userId": cmd.Actor.UserID}
	logger.Info("settlement service resubmit settlement", fields)

	if !s.routing.Valid(cmd.RoutingNumber) {
		return observeOutcome(operation, domain.Failed(invalidRoutingNumberMessage, domain.NewValidationError(invalidRoutingNumberMessage)))
	}

	original, err := s.settlements.GetByTrackingNumber(ctx, strings.TrimSpace(cmd.TrackingNumber))
	if err != nil {
		if isNotFound(err) {
			return observeOutcome(operation, domain.InvalidRequest())
		}
		logger.Error("settlement service load transfer failed", err, fields)
		return observeOutcome(operation, domain.Failed(settlementUnexpectedError, err))
	}

	entity, err := s.entities.GetEntityAccount(ctx, original.EntityID)
	if err != nil {
		logger.Error("settlement service load entity failed", err, fields)
		return observeOutcome(operation, domain.Failed(settlementUnexpectedError, err))
	}

	batchType := domain.BatchTypeLoanLevel
	if strings.EqualFold(strings.TrimSpace(cmd.AccountType), generalLedgerAccountType) {
		batchType = domain.BatchTypeACHSettlement
	}

	actor := actorName(cmd.Actor)
	resubmitted, err := s.funds.SubmitTransfer(ctx, domain.TransferRequest{
		EntityID:             original.EntityID,
		Type:                 domain.TransferTypeClientResubmission,
		Amount:               original.Amount.Abs(),
		RoutingNumber:        strings.TrimSpace(cmd.RoutingNumber),
		AccountType:          strings.TrimSpace(cmd.AccountType),
		AccountNumber:        strings.TrimSpace(cmd.AccountNumber),
		BatchType:            batchType,
		Description:          original.Description,
		SourceApp:            domain.SourceAppPortal,
		SystemCode:           resubmitSystemCode(original),
		CustomerNumber:       entity.ACHCustomerNumber,
		BankNumber:           entity.BankNumber,
		SubmittedAt:          s.now(),
		Source:               domain.SourceOnline,
		SourceKey:            original.SourceKey,
		SourceTrackingNumber: original.TrackingNumber,
	})
	if err != nil {
		logger.Error("settlement service resubmission failed", err, fields)
		var settlementErr *domain.SettlementError
		if errors.As(err, &settlementErr) {
			return observeOutcome(operation, domain.Failed(
				"Error: Unable to resubmit the settlement transaction: "+settlementFailureDescription(ctx, s.errorCodes, err), err))
		}
		return observeOutcome(operation, domain.Failed(settlementUnexpectedError, err))
	}
	moneyMovements.WithLabelValues(string(domain.TransferTypeClientResubmission)).Inc()
	fields["newTrackingNumber"] = resubmitted.TrackingNumber

	runner := newStepRunner(operation, fields)
	_ = runner.record(ctx, "resubmission link", func(ctx context.Context) error {
		return s.settlements.RecordResubmission(ctx, original, resubmitted, actor)
	})
	_ = runner.record(ctx, "resubmitted log", func(ctx context.Context) error {
		return s.auditLog.Append(ctx, domain.NewTransferLog(original.ID, actor, domain.ActionResubmitted,
			"Transaction resubmitted. New Tracking Number: "+resubmitted.TrackingNumber))
	})
	_ = runner.record(ctx, "submitted log", func(ctx context.Context) error {
		return s.auditLog.Append(ctx, domain.NewTransferLog(resubmitted.ID, actor, domain.ActionSubmitted, strings.TrimSpace(cmd.Comments)))
	})
	if err := runner.firstErr(); err != nil {
		return observeOutcome(operation, domain.Failed(settlementCommentsNotStored, &domain.PersistenceError{Op: "record resubmission", Err: err}))
	}

	return observeOutcome(operation, domain.Succeeded())
}

// resubmitSystemCode keeps the direction of the original transfer.
func resubmitSystemCode(original domain.ClientTransfer) domain.SystemCode {
	tn := strings.ToUpper(strings.TrimSpace(original.TrackingNumber))
	for _, prefix := range settlementPrefixes {
		if strings.HasPrefix(tn, prefix) {
			return domain.SystemCodeCredit
		}
	}
	for _, prefix := range reversalPrefixes {
		if strings.HasPrefix(tn, prefix) {
			return domain.SystemCodeDebit
		}
	}
	if original.Amount.IsNegative() {
		return domain.SystemCodeDebit
	}
	return domain.SystemCodeCredit
}
