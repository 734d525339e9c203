package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

const finalizationFailedMessage = "Unable to update the transaction right now. " + contactSupport

type FinalizeCommand struct {
	Key            int64
	Status         domain.TransactionStatus
	TrackingNumber string
	Actor          domain.Actor
}

type ManualUpdateCommand struct {
	Key            int64
	Status         domain.TransactionStatus
	TrackingNumber string
	TicketRef      string
	Actor          domain.Actor
}

type FinalizationService struct {
	txManager     domain.TransactionManager
	transactions  domain.TransactionStore
	auditLog      domain.AuditLog
	notifications domain.NotificationStore
	mappings      domain.CoreMappingProvider
	core          domain.CorePoster
}

func NewFinalizationService(
	txManager domain.TransactionManager,
	transactions domain.TransactionStore,
	auditLog domain.AuditLog,
	notifications domain.NotificationStore,
	mappings domain.CoreMappingProvider,
	core domain.CorePoster,
) *FinalizationService {
	return &FinalizationService{
		txManager:     txManager,
		transactions:  transactions,
		auditLog:      auditLog,
		notifications: notifications,
		mappings:      mappings,
		core:          core,
	}
}

// Finalize assigns the gateway tracking number and final status to a pending card payment.
// Validation failures come back as a failed outcome with a nil error. A failure inside the
// local unit of work rolls everything back and is also returned as the error.
func (s *FinalizationService) Finalize(ctx context.Context, cmd FinalizeCommand) (domain.Outcome, error) {
	const operation = "finalize_payment"
	newTrackingNumber := strings.TrimSpace(cmd.TrackingNumber)
	fields := logger.Fields{
		"key":                    cmd.Key,
		"status":                 cmd.Status,
		"trackingNumberToUpdate": newTrackingNumber,
	}
	logger.Info("finalization service finalize payment", fields)

	if msg := validateFinalizationParams(cmd.Key, cmd.Status, newTrackingNumber); msg != "" {
		return observeOutcome(operation, domain.Failed(msg, domain.NewValidationError("%s", msg))), nil
	}
	if !domain.CanTransition(domain.StatusPending, cmd.Status) {
		msg := fmt.Sprintf("Status %s is not a valid finalization status.", cmd.Status)
		return observeOutcome(operation, domain.Failed(msg, domain.NewValidationError("%s", msg))), nil
	}

	actor := actorName(cmd.Actor)
	var finalized domain.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if newTrackingNumber != "" {
			if err := s.ensureTrackingNumberFree(ctx, cmd.Key, newTrackingNumber, "Tracking Number "+newTrackingNumber+" is already in use by other transaction."); err != nil {
				return err
			}
		}

		tx, err := s.transactions.GetByKey(ctx, cmd.Key)
		if err != nil {
			if isNotFound(err) {
				return domain.NewValidationError("Transaction not found.")
			}
			return fmt.Errorf("load transaction: %w", err)
		}
		if tx.Status != domain.StatusPending {
			return domain.NewValidationError("Status is already updated for this Tracking Number.")
		}

		if err := s.updateNotification(ctx, tx.Key, cmd.Status); err != nil {
			return err
		}

		updated := tx
		updated.Status = cmd.Status
		if cmd.Status != domain.StatusDeleted {
			updated.ExternalTrackingNumber = newTrackingNumber
			if err := s.transactions.UpdateSplitPaymentTrackingNumbers(ctx, tx.Key, newTrackingNumber); err != nil {
				return fmt.Errorf("update split payment tracking numbers: %w", err)
			}
		}
		if err := s.writeTransaction(ctx, updated, actor); err != nil {
			return err
		}

		if cmd.Status != domain.StatusDeleted {
			comment := fmt.Sprintf("Tracking Number updated from %s to %s.", tx.ExternalTrackingNumber, newTrackingNumber)
			if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionUpdated, comment)); err != nil {
				return fmt.Errorf("append tracking number log: %w", err)
			}
		}
		comment := fmt.Sprintf("Status updated from %s to %s.", tx.Status, cmd.Status)
		if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionUpdated, comment)); err != nil {
			return fmt.Errorf("append status log: %w", err)
		}

		finalized = updated
		return nil
	})
	if err != nil {
		return s.finalizationFailure(operation, err, fields)
	}

	s.notifyCore(ctx, finalized, actor, fields)

	return observeOutcome(operation, domain.Succeeded()), nil
}

// ManualUpdate corrects the tracking number and/or status of a card payment under a support ticket.
func (s *FinalizationService) ManualUpdate(ctx context.Context, cmd ManualUpdateCommand) (domain.Outcome, error) {
	const operation = "manual_update"
	newTrackingNumber := strings.TrimSpace(cmd.TrackingNumber)
	ticket := strings.TrimSpace(cmd.TicketRef)
	fields := logger.Fields{
		"key":                    cmd.Key,
		"status":                 cmd.Status,
		"trackingNumberToUpdate": newTrackingNumber,
		"ticketRef":              ticket,
	}
	logger.Info("finalization service manual update", fields)

	msg := validateFinalizationParams(cmd.Key, cmd.Status, newTrackingNumber)
	if msg == "" && ticket == "" {
		msg = "A support ticket number is required."
	}
	if msg != "" {
		return observeOutcome(operation, domain.Failed(msg, domain.NewValidationError("%s", msg))), nil
	}

	actor := actorName(cmd.Actor)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.transactions.GetByKey(ctx, cmd.Key)
		if err != nil {
			if isNotFound(err) {
				return domain.NewValidationError("Transaction not found.")
			}
			return fmt.Errorf("load transaction: %w", err)
		}

		trackingChanged := newTrackingNumber != tx.ExternalTrackingNumber &&
			!(cmd.Status == domain.StatusDeleted && newTrackingNumber == "")
		if trackingChanged {
			if err := s.ensureTrackingNumberFree(ctx, tx.Key, newTrackingNumber, "The new tracking number already exists on another transaction."); err != nil {
				return err
			}
		}

		statusChanged := cmd.Status != tx.Status
		if !trackingChanged && !statusChanged {
			return domain.NewValidationError("The Tracking Number and/or Status must be a different value.")
		}
		if statusChanged && !domain.CanTransitionManually(tx.Status, cmd.Status) {
			return domain.NewValidationError("Status cannot be changed from %s to %s.", tx.Status, cmd.Status)
		}

		updated := tx
		updated.Status = cmd.Status
		if trackingChanged {
			updated.ExternalTrackingNumber = newTrackingNumber
			if err := s.transactions.UpdateSplitPaymentTrackingNumbers(ctx, tx.Key, newTrackingNumber); err != nil {
				return fmt.Errorf("update split payment tracking numbers: %w", err)
			}
		}
		if err := s.writeTransaction(ctx, updated, actor); err != nil {
			return err
		}

		if trackingChanged {
			comment := fmt.Sprintf("Tracking Number updated from %s to %s for support ticket number: %s.", tx.ExternalTrackingNumber, newTrackingNumber, ticket)
			if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionUpdated, comment)); err != nil {
				return fmt.Errorf("append tracking number log: %w", err)
			}
		}
		if statusChanged {
			comment := fmt.Sprintf("Status updated from %s to %s for support ticket number: %s.", tx.Status, cmd.Status, ticket)
			if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionUpdated, comment)); err != nil {
				return fmt.Errorf("append status log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return s.finalizationFailure(operation, err, fields)
	}

	return observeOutcome(operation, domain.Succeeded()), nil
}

func validateFinalizationParams(key int64, status domain.TransactionStatus, trackingNumber string) string {
	if !status.Valid() {
		return "Invalid Status provided."
	}
	if status != domain.StatusDeleted && !trackingNumberPattern.MatchString(trackingNumber) {
		return invalidTrackingNumberMessage
	}
	if key <= 0 {
		return "Invalid transaction key provided."
	}
	return ""
}

func (s *FinalizationService) ensureTrackingNumberFree(ctx context.Context, key int64, trackingNumber string, inUseMessage string) error {
	existing, err := s.transactions.GetByExternalTrackingNumber(ctx, trackingNumber)
	switch {
	case err == nil && existing.Key != key:
		return domain.NewValidationError("%s", inUseMessage)
	case err != nil && !isNotFound(err):
		return fmt.Errorf("lookup tracking number: %w", err)
	}
	return nil
}

func (s *FinalizationService) updateNotification(ctx context.Context, key int64, status domain.TransactionStatus) error {
	notification, err := s.notifications.GetByTransactionKey(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("load notification: %w", err)
	}
	if notification == nil {
		return nil
	}

	if status == domain.StatusDeclined || status == domain.StatusDeleted {
		if err := s.notifications.Remove(ctx, notification.ID); err != nil {
			return fmt.Errorf("remove notification: %w", err)
		}
		return nil
	}
	if err := s.notifications.MarkPrintStatus(ctx, notification.ID, domain.NotificationPrintPending); err != nil {
		return fmt.Errorf("mark notification pending print: %w", err)
	}
	return nil
}

func (s *FinalizationService) writeTransaction(ctx context.Context, tx domain.Transaction, actor string) error {
	ok, err := s.transactions.UpdateTransaction(ctx, tx, actor)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if !ok {
		return domain.ErrStaleVersion
	}
	return nil
}

func (s *FinalizationService) finalizationFailure(operation string, err error, fields logger.Fields) (domain.Outcome, error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return observeOutcome(operation, domain.Failed(validationErr.Message, err)), nil
	}

	logger.Error("Error updating transaction in database while finalizing payment.", err, fields)
	return observeOutcome(operation, domain.Failed(finalizationFailedMessage, err)), err
}

func (s *FinalizationService) notifyCore(ctx context.Context, tx domain.Transaction, actor string, fields logger.Fields) {
	mapping, err := s.mappings.ByEntityID(ctx, tx.EntityID)
	if err != nil {
		if !isNotFound(err) {
			logger.Error("finalization service load core mapping failed", &domain.NotificationError{Channel: "core", Err: err}, fields)
		}
		return
	}
	if !mapping.CoreEnabled() {
		return
	}

	switch tx.Status {
	case domain.StatusApproved, domain.StatusFunded:
		err := s.core.Post(ctx, domain.CoreEvent{
			Type:            domain.CoreEventPayment,
			TransactionKey:  tx.Key,
			TrackingNumber:  tx.ExternalTrackingNumber,
			Status:          tx.Status,
			Actor:           actor,
			PortalAccountID: mapping.PortalAccountID,
		})
		if err != nil {
			logger.Error("finalization service core payment post failed", &domain.NotificationError{Channel: "core", Err: err}, fields)
		}
	case domain.StatusDeclined, domain.StatusDeleted:
		if err := s.core.MarkNotApplicable(ctx, tx.Key, actor, mapping.PortalAccountID); err != nil {
			logger.Error("finalization service core not applicable update failed", &domain.NotificationError{Channel: "core", Err: err}, fields)
			return
		}
		comment := fmt.Sprintf("Core messages have been set to not applicable because the transaction is %s.", tx.Status)
		if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionCorePosting, comment)); err != nil {
			logger.Error("finalization service core note failed", err, fields)
		}
	}
}
