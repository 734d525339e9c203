package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	unexpectedReversalError   = "An unexpected error occurred while processing the ACH Reversal. " + contactSupport
	reversalFundsErrorPrefix  = "Error: Unable to submit Reversal (Funds Recovery) Transaction: "
	reversalIncompleteMessage = "Unable to complete ACH Reversal. " + contactSupport
	reversalStatusNotUpdated  = "Unable to update Status of ACH Reversal, but the Reversal (Funds Recovery) Transaction has been submitted. " + contactSupport
	reversalLogNotStored      = "The ACH Reversal has been completed but its log comments could not be stored. " + contactSupport
	reversalRequestFailed     = "Unable to submit the ACH Reversal request. " + contactSupport
	coreReversalFailedComment = "Core - Reversal messages could not be completed."
)

var errInsufficientCoreInfo = errors.New("ACH reversal for core contains insufficient information")

type ReversalApprovalCommand struct {
	TrackingNumber  string
	Actor           domain.Actor
	IsFundsRecovery bool
	Amount          decimal.Decimal
	Reason          string
}

type ReversalRequestCommand struct {
	TrackingNumber string
	Actor          domain.Actor
	Reason         string
}

type ReversalService struct {
	transactions          domain.TransactionStore
	auditLog              domain.AuditLog
	entities              domain.EntityStore
	funds                 domain.FundsMover
	alerts                domain.AlertNotifier
	core                  domain.CorePoster
	mappings              domain.CoreMappingProvider
	cipher                domain.AccountCipher
	errorCodes            domain.ErrorCodeStore
	consumerCreditCapture bool
	now                   func() time.Time
}

func NewReversalService(
	transactions domain.TransactionStore,
	auditLog domain.AuditLog,
	entities domain.EntityStore,
	funds domain.FundsMover,
	alerts domain.AlertNotifier,
	core domain.CorePoster,
	mappings domain.CoreMappingProvider,
	cipher domain.AccountCipher,
	errorCodes domain.ErrorCodeStore,
	consumerCreditCapture bool,
) *ReversalService {
	return &ReversalService{
		transactions:          transactions,
		auditLog:              auditLog,
		entities:              entities,
		funds:                 funds,
		alerts:                alerts,
		core:                  core,
		mappings:              mappings,
		cipher:                cipher,
		errorCodes:            errorCodes,
		consumerCreditCapture: consumerCreditCapture,
		now:                   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReversalService) RequestReversal(ctx context.Context, cmd ReversalRequestCommand) domain.Outcome {
	const operation = "request_reversal"
	fields := logger.Fields{
		"trackingNumber": cmd.TrackingNumber,
		"userId":         cmd.Actor.UserID,
	}
	logger.Info("reversal service request reversal", fields)

	tx, err := s.transactions.GetByTrackingNumber(ctx, strings.TrimSpace(cmd.TrackingNumber))
	if err != nil {
		if isNotFound(err) {
			return observeOutcome(operation, domain.InvalidRequest())
		}
		logger.Error("reversal service load transaction failed", err, fields)
		return observeOutcome(operation, domain.Failed(reversalRequestFailed, err))
	}
	if tx.Status == domain.StatusReversalRequested || !domain.CanTransition(tx.Status, domain.StatusReversalRequested) {
		return observeOutcome(operation, domain.InvalidRequest())
	}

	entity, err := s.entities.GetEntityAccount(ctx, tx.EntityID)
	if err != nil {
		logger.Error("reversal service load entity failed", err, fields)
		return observeOutcome(operation, domain.Failed(reversalRequestFailed, err))
	}

	if err := s.alerts.Post(ctx, domain.AlertPendingAchReversal, domain.AlertDetails{
		TrackingNumber:  tx.TrackingNumber,
		PortalAccountID: cmd.Actor.PortalAccountID,
		EntityID:        tx.EntityID,
		AccountName:     entity.InstitutionName,
		Amount:          tx.Amount,
		EffectiveDate:   tx.EffectiveDate,
		IndividualName:  tx.IndividualName,
		CustomerNumber:  entity.ACHCustomerNumber,
		BatchID:         tx.BatchID,
		Reason:          cmd.Reason,
	}); err != nil {
		logger.Error("reversal service post pending reversal alert failed", &domain.NotificationError{Channel: "alert", Err: err}, fields)
	}

	runner := newStepRunner(operation, fields)
	_ = runner.record(ctx, "reversal log", func(ctx context.Context) error {
		return s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actorName(cmd.Actor), domain.ActionReversal, cmd.Reason))
	})

	updated, err := s.transactions.UpdateStatus(ctx, domain.StatusUpdate{
		Key:             tx.Key,
		Status:          domain.StatusReversalRequested,
		Actor:           domain.SystemActor,
		ExpectedVersion: tx.Version,
	})
	if err != nil {
		logger.Error("reversal service request status update failed", err, fields)
		return observeOutcome(operation, domain.Failed(reversalRequestFailed, &domain.PersistenceError{Op: "update reversal request status", Err: err}))
	}
	if !updated {
		logger.Error("reversal service request status not updated", domain.ErrStaleVersion, fields)
		return observeOutcome(operation, domain.Failed(reversalRequestFailed, &domain.PersistenceError{Op: "update reversal request status", Err: domain.ErrStaleVersion}))
	}

	if err := runner.firstErr(); err != nil {
		return observeOutcome(operation, domain.Failed(
			"The ACH Reversal request has been submitted but its log comment could not be stored. "+contactSupport,
			&domain.PersistenceError{Op: "append reversal log", Err: err},
		))
	}

	return observeOutcome(operation, domain.Succeeded())
}

func (s *ReversalService) ApproveReversal(ctx context.Context, cmd ReversalApprovalCommand) domain.Outcome {
	const operation = "approve_reversal"
	fields := logger.Fields{
		"trackingNumber":  cmd.TrackingNumber,
		"isFundsRecovery": cmd.IsFundsRecovery,
		"amount":          cmd.Amount.String(),
		"userId":          cmd.Actor.UserID,
	}
	logger.Info("reversal service approve reversal", fields)

	tx, err := s.transactions.GetByTrackingNumber(ctx, strings.TrimSpace(cmd.TrackingNumber))
	if err != nil {
		if isNotFound(err) {
			return observeOutcome(operation, domain.InvalidRequest())
		}
		logger.Error("reversal service load transaction failed", err, fields)
		return observeOutcome(operation, domain.Failed(unexpectedReversalError, err))
	}
	if tx.Status == domain.StatusReversalComplete || !domain.CanTransition(tx.Status, domain.StatusReversalComplete) {
		return observeOutcome(operation, domain.InvalidRequest())
	}
	fields["key"] = tx.Key

	var (
		transfers     []domain.ClientTransfer
		fundsComplete bool
	)
	if cmd.IsFundsRecovery {
		entity, err := s.entities.GetEntityAccount(ctx, tx.EntityID)
		if err != nil {
			logger.Error("reversal service load entity failed", err, fields)
			return observeOutcome(operation, domain.Failed(unexpectedReversalError, err))
		}

		transfers, err = s.recoverFunds(ctx, cmd, tx, entity, fields)
		if err != nil {
			return observeOutcome(operation, s.fundsRecoveryFailure(ctx, cmd, tx, transfers, err, fields))
		}
		fundsComplete = true
	}

	// A funds recovery failure already returned above, so the status message is the only candidate left.
	message, reversalComplete, statusErr := s.completeReversal(ctx, cmd, tx, transfers, fundsComplete, fields)

	if fundsComplete || reversalComplete {
		s.clearPendingReversalAlert(ctx, cmd, tx, fields)
	}

	if message != "" {
		logger.Error("reversal service approve reversal failed", statusErr, fields)
		return observeOutcome(operation, domain.Failed(message, statusErr))
	}

	s.postToCore(ctx, cmd, tx, fundsComplete, reversalComplete, fields)

	return observeOutcome(operation, domain.Succeeded())
}

func (s *ReversalService) recoverFunds(
	ctx context.Context,
	cmd ReversalApprovalCommand,
	tx domain.Transaction,
	entity domain.EntityAccount,
	fields logger.Fields,
) ([]domain.ClientTransfer, error) {
	if !cmd.Amount.IsPositive() {
		return nil, domain.NewValidationError("Error: Recover amount must be greater than zero.")
	}
	if cmd.Amount.GreaterThan(tx.Amount) {
		return nil, domain.NewValidationError("Error: Recover amount cannot be more than the original transaction amount: %s", formatCurrency(tx.Amount))
	}

	settlementAccount, err := s.cipher.Decrypt(entity.SettlementAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("decrypt settlement account: %w", err)
	}
	var consumerAccount string
	if s.consumerCreditCapture {
		consumerAccount, err = s.cipher.Decrypt(tx.AccountNumber)
		if err != nil {
			return nil, fmt.Errorf("decrypt consumer account: %w", err)
		}
	}

	now := s.now()
	runner := newStepRunner("approve_reversal", fields)
	var transfers []domain.ClientTransfer
	submit := func(req domain.TransferRequest) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			transfer, err := s.funds.SubmitTransfer(ctx, req)
			if err != nil {
				return err
			}
			moneyMovements.WithLabelValues(string(req.Type)).Inc()
			transfers = append(transfers, transfer)
			return nil
		}
	}

	_ = runner.money(ctx, "client debit", submit(domain.TransferRequest{
		EntityID:             tx.EntityID,
		Type:                 domain.TransferTypeClientReversal,
		Amount:               cmd.Amount,
		RoutingNumber:        entity.RoutingNumber,
		AccountType:          entity.SettlementAccountType,
		AccountNumber:        settlementAccount,
		BatchType:            domain.BatchTypeACHSettlement,
		Description:          "REV " + entity.InstitutionName,
		SourceApp:            domain.SourceAppPortal,
		SystemCode:           domain.SystemCodeDebit,
		CustomerNumber:       entity.ACHCustomerNumber,
		BankNumber:           entity.BankNumber,
		SubmittedAt:          now,
		Source:               domain.SourceOnline,
		SourceKey:            tx.Key,
		SourceTrackingNumber: tx.TrackingNumber,
	}))

	if s.consumerCreditCapture {
		_ = runner.money(ctx, "consumer credit", submit(domain.TransferRequest{
			EntityID:             tx.EntityID,
			Type:                 domain.TransferTypeClientReversal,
			Amount:               cmd.Amount,
			RoutingNumber:        tx.RoutingNumber,
			AccountType:          tx.AccountType,
			AccountNumber:        consumerAccount,
			BatchType:            domain.BatchTypeACHSettlement,
			Description:          "REV " + entity.InstitutionName,
			SourceApp:            domain.SourceAppPortal,
			SystemCode:           domain.SystemCodeCredit,
			SubmittedAt:          now,
			Source:               domain.SourceOnline,
			SourceKey:            tx.Key,
			SourceTrackingNumber: tx.TrackingNumber,
		}))
	}

	return transfers, runner.firstErr()
}

func (s *ReversalService) fundsRecoveryFailure(
	ctx context.Context,
	cmd ReversalApprovalCommand,
	tx domain.Transaction,
	committed []domain.ClientTransfer,
	err error,
	fields logger.Fields,
) domain.Outcome {
	logger.Error("reversal service funds recovery failed", err, fields)

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return domain.Failed(validationErr.Message, err)
	}

	var settlementErr *domain.SettlementError
	if !errors.As(err, &settlementErr) {
		return domain.Failed(unexpectedReversalError, err)
	}

	message := reversalFundsErrorPrefix + settlementFailureDescription(ctx, s.errorCodes, err)
	if len(committed) == 0 {
		return domain.Failed(message, err)
	}

	for _, transfer := range committed {
		comment := fmt.Sprintf("Client/Consumer Debit submitted, Tracking Number: %s; offsetting credit was not submitted.", transfer.TrackingNumber)
		if logErr := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actorName(cmd.Actor), domain.ActionNote, comment)); logErr != nil {
			logger.Error("reversal service committed debit note failed", logErr, fields)
		}
	}
	return domain.Failed(message+". The Client/Consumer Debit has been submitted. "+contactSupport, err)
}

func (s *ReversalService) completeReversal(
	ctx context.Context,
	cmd ReversalApprovalCommand,
	tx domain.Transaction,
	transfers []domain.ClientTransfer,
	fundsComplete bool,
	fields logger.Fields,
) (string, bool, error) {
	actor := actorName(cmd.Actor)

	updated, err := s.transactions.UpdateStatus(ctx, domain.StatusUpdate{
		Key:             tx.Key,
		Status:          domain.StatusReversalComplete,
		Actor:           actor,
		ExpectedVersion: tx.Version,
	})
	if err != nil {
		return unexpectedReversalError, false, &domain.PersistenceError{Op: "update reversal status", Err: err}
	}
	if !updated {
		cause := &domain.PersistenceError{Op: "update reversal status", Err: domain.ErrStaleVersion}
		if fundsComplete {
			return reversalStatusNotUpdated, false, cause
		}
		return reversalIncompleteMessage, false, cause
	}

	runner := newStepRunner("approve_reversal", fields)
	if cmd.IsFundsRecovery {
		for i, transfer := range transfers {
			label := "Client/Consumer Debit"
			if i > 0 {
				label = "Reversal and Member Credit"
			}

			_ = runner.record(ctx, "transfer submitted log", func(ctx context.Context) error {
				return s.auditLog.Append(ctx, domain.NewTransferLog(
					transfer.ID, actor, domain.ActionSubmitted,
					"Submitted for a Reversal of tracking number: "+tx.TrackingNumber,
				))
			})
			_ = runner.record(ctx, "reversal completed log", func(ctx context.Context) error {
				entry := domain.NewTransactionLog(tx.Key, actor, domain.ActionReversalComplete,
					fmt.Sprintf("%s Completed, Tracking Number: %s", label, transfer.TrackingNumber))
				entry.Extra = "0"
				return s.auditLog.Append(ctx, entry)
			})
			if transfer.IsDebit() {
				_ = runner.record(ctx, "funds recovered note", func(ctx context.Context) error {
					return s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionNote,
						"Reversal Funds recovered: Reason: "+cmd.Reason))
				})
			}
		}
	} else {
		_ = runner.record(ctx, "funds not recovered note", func(ctx context.Context) error {
			return s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionNote,
				"Reversal funds not recovered: Reason: "+cmd.Reason))
		})
	}

	if err := runner.firstErr(); err != nil {
		return reversalLogNotStored, true, &domain.PersistenceError{Op: "append reversal log", Err: err}
	}
	return "", true, nil
}

func (s *ReversalService) clearPendingReversalAlert(ctx context.Context, cmd ReversalApprovalCommand, tx domain.Transaction, fields logger.Fields) {
	err := s.alerts.Delete(ctx, domain.AlertPendingAchReversal, domain.AlertDetails{
		TrackingNumber:  tx.TrackingNumber,
		PortalAccountID: cmd.Actor.PortalAccountID,
	}, cmd.Actor.UserID)
	if err != nil {
		logger.Error("reversal service clear pending reversal alert failed", &domain.NotificationError{Channel: "alert", Err: err}, fields)
	}
}

func (s *ReversalService) postToCore(
	ctx context.Context,
	cmd ReversalApprovalCommand,
	tx domain.Transaction,
	fundsComplete bool,
	reversalComplete bool,
	fields logger.Fields,
) {
	err := s.postReversalToCore(ctx, cmd, tx, fundsComplete, reversalComplete)
	if err == nil {
		return
	}

	logger.Error("reversal service core posting failed", &domain.NotificationError{Channel: "core", Err: err}, fields)
	entry := domain.NewTransactionLog(tx.Key, actorName(cmd.Actor), domain.ActionApproveReversal, coreReversalFailedComment)
	if logErr := s.auditLog.Append(ctx, entry); logErr != nil {
		logger.Error("reversal service core failure note failed", logErr, fields)
	}
}

func (s *ReversalService) postReversalToCore(
	ctx context.Context,
	cmd ReversalApprovalCommand,
	tx domain.Transaction,
	fundsComplete bool,
	reversalComplete bool,
) error {
	mapping, err := s.mappings.ByEntityID(ctx, tx.EntityID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("load core mapping: %w", err)
	}
	if !mapping.CoreEnabled() {
		return nil
	}

	switch {
	case fundsComplete && reversalComplete:
		return s.core.Post(ctx, domain.CoreEvent{
			Type:            domain.CoreEventReversal,
			TransactionKey:  tx.Key,
			TrackingNumber:  tx.TrackingNumber,
			Status:          domain.StatusReversalComplete,
			Actor:           actorName(cmd.Actor),
			PortalAccountID: mapping.PortalAccountID,
		})
	case !cmd.IsFundsRecovery && reversalComplete && tx.Key > 0:
		return s.fanOutReversalMessages(ctx, cmd, tx, mapping)
	default:
		return errInsufficientCoreInfo
	}
}

// fanOutReversalMessages rebuilds one core message per split payment component,
// once for each posting preference the account has enabled.
func (s *ReversalService) fanOutReversalMessages(ctx context.Context, cmd ReversalApprovalCommand, tx domain.Transaction, mapping *domain.CoreMapping) error {
	splits, err := s.transactions.SplitPayments(ctx, tx.Key)
	if err != nil {
		return fmt.Errorf("load split payments: %w", err)
	}

	partyMemberID := ""
	for _, split := range splits {
		if split.PartyMemberID != "" {
			partyMemberID = split.PartyMemberID
			break
		}
	}

	var types []domain.CoreEventType
	if mapping.PostReversals {
		types = append(types, domain.CoreEventReversal)
	}
	if mapping.PostReversalNotesToMembers {
		types = append(types, domain.CoreEventReversalNote)
	}
	if mapping.PostReversalNotesToAccounts {
		types = append(types, domain.CoreEventReversalAccountNote)
	}

	for _, split := range splits {
		account, err := s.cipher.Decrypt(split.ApplyToAccountNumber)
		if err != nil {
			return fmt.Errorf("decrypt split payment %d account: %w", split.ID, err)
		}

		for _, eventType := range types {
			msg := domain.CoreMessage{
				ID:              uuid.New(),
				Type:            eventType,
				Status:          domain.CorePostPending,
				TransactionKey:  tx.Key,
				SplitPaymentID:  split.ID,
				TrackingNumber:  tx.TrackingNumber,
				AccountNumber:   account,
				Amount:          split.Amount,
				PartyMemberID:   partyMemberID,
				PaymentSourceID: tx.PaymentSourceID,
				Actor:           actorName(cmd.Actor),
				PortalAccountID: mapping.PortalAccountID,
				CreatedAt:       s.now(),
			}
			if err := s.core.SaveMessage(ctx, msg); err != nil {
				return fmt.Errorf("save %s core message for split payment %d: %w", eventType, split.ID, err)
			}
		}
	}

	return nil
}
