package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
)

const (
	refundUnexpectedError   = "Unable to refund this transaction right now. " + contactSupport
	refundDeclinedMessage   = "Refund was not approved by the card processor."
	refundStatusNotUpdated  = "The refund was approved by the card processor but the transaction status could not be updated. " + contactSupport
	refundLogNotStored      = "The refund was approved but its log comment could not be stored. " + contactSupport
	voidRefundFailurePrefix = "Api failed to void or refund this transaction, "
	refundTimeLayout        = "3:04:05 PM"
	refundRecordTypeRefund  = "r"
	refundAmountLabel       = "Refund Total"
	softFailureComment      = "Failed"
	alreadyRefundedComment  = "Already refunded by the payment processor"
	failedGatewayComment    = "[Internal] An error was encountered during void/refund process."
)

type RefundCommand struct {
	Key   int64
	Actor domain.Actor
}

type VoidRefundCommand struct {
	GatewayTransactionID   string
	MerchantProfileID      string
	PaymentMethodID        string
	ExternalTrackingNumber string
	Actor                  domain.Actor
}

type RefundService struct {
	transactions      domain.TransactionStore
	auditLog          domain.AuditLog
	entities          domain.EntityStore
	processingDetails domain.ProcessingDetailStore
	refundRecords     domain.RefundRecordStore
	gateways          domain.GatewayResolver
	cardRefunder      domain.CardRefunder
	funds             domain.FundsMover
	alerts            domain.AlertNotifier
	core              domain.CorePoster
	mappings          domain.CoreMappingProvider
	policy            domain.ReversalPolicy
	email             domain.EmailNotifier
	errorCodes        domain.ErrorCodeStore
	cipher            domain.AccountCipher
	now               func() time.Time
}

func NewRefundService(
	transactions domain.TransactionStore,
	auditLog domain.AuditLog,
	entities domain.EntityStore,
	processingDetails domain.ProcessingDetailStore,
	refundRecords domain.RefundRecordStore,
	gateways domain.GatewayResolver,
	cardRefunder domain.CardRefunder,
	funds domain.FundsMover,
	alerts domain.AlertNotifier,
	core domain.CorePoster,
	mappings domain.CoreMappingProvider,
	policy domain.ReversalPolicy,
	email domain.EmailNotifier,
	errorCodes domain.ErrorCodeStore,
	cipher domain.AccountCipher,
) *RefundService {
	return &RefundService{
		transactions:      transactions,
		auditLog:          auditLog,
		entities:          entities,
		processingDetails: processingDetails,
		refundRecords:     refundRecords,
		gateways:          gateways,
		cardRefunder:      cardRefunder,
		funds:             funds,
		alerts:            alerts,
		core:              core,
		mappings:          mappings,
		policy:            policy,
		email:             email,
		errorCodes:        errorCodes,
		cipher:            cipher,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (s *RefundService) GetTransactionStatus(ctx context.Context, externalTrackingNumber string) string {
	tx, err := s.transactions.GetByExternalTrackingNumber(ctx, strings.TrimSpace(externalTrackingNumber))
	if err != nil {
		if !isNotFound(err) {
			logger.Error("refund service get transaction status failed", err, logger.Fields{
				"externalTrackingNumber": externalTrackingNumber,
			})
		}
		return domain.StatusUnknown
	}
	return string(tx.Status)
}

func (s *RefundService) RefundCardTransaction(ctx context.Context, cmd RefundCommand) domain.Outcome {
	const operation = "refund_card_transaction"
	fields := logger.Fields{"key": cmd.Key, "userId": cmd.Actor.UserID}
	logger.Info("refund service refund card transaction", fields)

	tx, err := s.transactions.GetByKey(ctx, cmd.Key)
	if err != nil {
		if isNotFound(err) {
			return observeOutcome(operation, domain.InvalidRequest())
		}
		logger.Error("refund service load transaction failed", err, fields)
		return observeOutcome(operation, domain.Failed(refundUnexpectedError, err))
	}
	fields["trackingNumber"] = tx.TrackingNumber

	entity, err := s.entities.GetEntityAccount(ctx, tx.EntityID)
	if err != nil {
		logger.Error("refund service load entity failed", err, fields)
		return observeOutcome(operation, domain.Failed(refundUnexpectedError, err))
	}

	if tx.Status == domain.StatusRefunded ||
		!s.policy.Allow(ctx, s.policyInput(tx, entity)) ||
		!domain.CanTransition(tx.Status, domain.StatusRefunded) {
		return observeOutcome(operation, domain.InvalidRequest())
	}

	actor := actorName(cmd.Actor)
	resp, err := s.cardRefunder.Refund(ctx, domain.CardRefundRequest{
		Transaction: tx,
		PinDebit:    tx.IsPinDebit(),
		Label:       refundAmountLabel,
		Actor:       actor,
	})
	if err != nil || resp == nil {
		cause := &domain.GatewayError{Message: "card refund returned no response", Err: err}
		logger.Error("refund service card refund failed", cause, fields)
		return observeOutcome(operation, domain.Failed(refundUnexpectedError, cause))
	}

	record, err := s.refundRecords.GetApproved(ctx, tx.Key)
	if err != nil && !isNotFound(err) {
		logger.Error("refund service load refund record failed", err, fields)
	}

	fields["resultCode"] = resp.ResultCode
	logger.Info("refund service card refund response", fields)

	if resp.ResultCode != domain.CardRefundApprovedCode {
		return observeOutcome(operation, domain.Failed(refundDeclinedMessage, &domain.GatewayError{Code: resp.ResultCode, Message: resp.Message}))
	}

	runner := newStepRunner(operation, fields)
	statusErr := runner.record(ctx, "status update", func(ctx context.Context) error {
		return s.updateStatus(ctx, tx, domain.StatusRefunded, actor)
	})
	logErr := runner.record(ctx, "refund log", func(ctx context.Context) error {
		return s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionRefund, "Refund Successful "+s.now().Format(refundTimeLayout)))
	})

	var settlementErr error
	if (tx.ClientDebited() || tx.IsPinDebit()) && (record == nil || record.Type != domain.RefundRecordTypeVoid) {
		settlementErr = runner.money(ctx, "client settlement", func(ctx context.Context) error {
			return s.submitClientSettlement(ctx, tx, entity, actor)
		})
	}

	// Core mirrors the processor refund whether or not the client debit went through.
	if err := s.postRefundToCore(ctx, tx, actor); err != nil {
		logger.Error("refund service core posting failed", &domain.NotificationError{Channel: "core", Err: err}, fields)
	}

	switch {
	case settlementErr != nil:
		description := settlementFailureDescription(ctx, s.errorCodes, settlementErr)
		if err := s.email.SendFailedRefundChargeback(ctx, tx, entity, "Error: "+description); err != nil {
			logger.Error("refund service failed refund email failed", &domain.NotificationError{Channel: "email", Err: err}, fields)
		}
		return observeOutcome(operation, domain.Failed(
			"The refund was approved but the client debit could not be submitted: "+description+". "+contactSupport,
			settlementErr,
		))
	case statusErr != nil:
		return observeOutcome(operation, domain.Failed(refundStatusNotUpdated, statusErr))
	case logErr != nil:
		return observeOutcome(operation, domain.Failed(refundLogNotStored, &domain.PersistenceError{Op: "append refund log", Err: logErr}))
	}

	return observeOutcome(operation, domain.Succeeded())
}

func (s *RefundService) VoidOrRefundPending(ctx context.Context, cmd VoidRefundCommand) error {
	const operation = "void_or_refund_pending"
	ext := strings.TrimSpace(cmd.ExternalTrackingNumber)
	cmd.ExternalTrackingNumber = ext
	fields := logger.Fields{
		"externalTrackingNumber": ext,
		"gatewayTransactionId":   cmd.GatewayTransactionID,
		"merchantProfileId":      cmd.MerchantProfileID,
		"paymentMethodId":        cmd.PaymentMethodID,
	}
	logger.Info("refund service void or refund pending", fields)

	if ext == "" {
		return observeError(operation, &domain.VoidRefundError{
			Message: "Void/Refund failed because the external tracking number is empty.",
			Err:     domain.ErrInvalidRequest,
		})
	}

	tx, entity, detail, message := s.validateVoidRefund(ctx, ext, fields)
	if message != "" {
		return observeError(operation, s.voidRefundFailure(ctx, cmd, tx, false, voidRefundFailurePrefix+message, domain.ErrInvalidRequest, fields))
	}

	client, err := s.gateways.Resolve(ext)
	if err != nil {
		return observeError(operation, s.voidRefundFailure(ctx, cmd, tx, true, voidRefundFailurePrefix+"the payment processor could not be determined.", err, fields))
	}

	req, err := resolveGatewayRequest(cmd, tx, detail, client)
	if err != nil {
		return observeError(operation, s.voidRefundFailure(ctx, cmd, tx, true, voidRefundFailurePrefix+err.Error(), err, fields))
	}

	alertDetails := domain.AlertDetails{TrackingNumber: ext, PortalAccountID: cmd.Actor.PortalAccountID}
	if err := s.alerts.Delete(ctx, domain.AlertFailedCardRefund, alertDetails, cmd.Actor.UserID); err != nil {
		logger.Error("refund service clear failed refund alert failed", &domain.NotificationError{Channel: "alert", Err: err}, fields)
	}

	resp, err := client.VoidOrRefund(ctx, req)
	if err != nil || resp == nil {
		cause := &domain.GatewayError{Family: client.Family(), Message: "void/refund returned no response", Err: err}
		return observeError(operation, s.voidRefundFailure(ctx, cmd, tx, true, "Void/Refund call to the payment processor failed for "+ext+".", cause, fields))
	}
	fields["resultCode"] = resp.ResultCode
	fields["alreadyRefunded"] = resp.AlreadyRefunded

	refunded := resp.Refunded() || resp.AlreadyRefunded
	// A stale alert from an earlier attempt must go before any step can raise a new one.
	if refunded {
		if err := s.alerts.Delete(ctx, domain.AlertRefundUpdateFailed, alertDetails, cmd.Actor.UserID); err != nil {
			logger.Error("refund service clear refund update alert failed", &domain.NotificationError{Channel: "alert", Err: err}, fields)
		}
	}

	actor := actorName(cmd.Actor)
	runner := newStepRunner(operation, fields)
	runner.onFailure = func(ctx context.Context, _ string, _ error) {
		s.postRefundUpdateFailedAlert(ctx, cmd, tx, fields)
	}

	_ = runner.record(ctx, "refund log", func(ctx context.Context) error {
		return s.recordRefundAttempt(ctx, tx, client, *resp, actor)
	})

	switch {
	case refunded:
		statusErr := runner.record(ctx, "status update", func(ctx context.Context) error {
			return s.updateStatus(ctx, tx, domain.StatusRefunded, actor)
		})
		if !resp.AlreadyRefunded {
			_ = runner.record(ctx, "core post", func(ctx context.Context) error {
				return s.postRefundToCore(ctx, tx, actor)
			})
		}
		if statusErr == nil && tx.ClientDebited() {
			_ = runner.money(ctx, "client settlement", func(ctx context.Context) error {
				return s.submitClientSettlement(ctx, tx, entity, actor)
			})
		}
	case isDecline(client, *resp):
		_ = runner.record(ctx, "declined status update", func(ctx context.Context) error {
			return s.updateStatus(ctx, tx, domain.StatusDeclined, actor)
		})
	default:
		cause := &domain.GatewayError{Family: client.Family(), Code: resp.ResultCode, Message: resp.Message}
		return observeError(operation, s.voidRefundFailure(ctx, cmd, tx, false, "Void/Refund was not successful for "+ext+".", cause, fields))
	}

	if err := runner.firstErr(); err != nil {
		logger.Error("refund service void or refund completed with failures", err, fields)
		return observeError(operation, &domain.VoidRefundError{
			ExternalTrackingNumber: ext,
			Message:                fmt.Sprintf("Void/Refund for %s could not complete step %q.", ext, runner.firstFailedStep()),
			Err:                    err,
		})
	}

	return observeError(operation, nil)
}

func (s *RefundService) validateVoidRefund(
	ctx context.Context,
	ext string,
	fields logger.Fields,
) (domain.Transaction, domain.EntityAccount, domain.ProcessingDetail, string) {
	const generalError = "a general error occurred while validating the request."
	var (
		entity domain.EntityAccount
		detail domain.ProcessingDetail
	)

	if !trackingNumberPattern.MatchString(ext) {
		return domain.Transaction{}, entity, detail, "the tracking number " + ext + " is not in a valid format."
	}

	tx, err := s.transactions.GetByExternalTrackingNumber(ctx, ext)
	if err != nil {
		if isNotFound(err) {
			return tx, entity, detail, "did not find a matching record for " + ext + "."
		}
		logger.Error("refund service void refund lookup failed", err, fields)
		return tx, entity, detail, generalError
	}
	if tx.Status == domain.StatusRefunded {
		return tx, entity, detail, "the transaction has already been refunded."
	}

	entity, err = s.entities.GetEntityAccount(ctx, tx.EntityID)
	if err != nil {
		logger.Error("refund service void refund entity lookup failed", err, fields)
		return tx, entity, detail, generalError
	}

	in := s.policyInput(tx, entity)
	if !s.policy.Allow(ctx, in) {
		if s.policy.RefundWindowExceeded(in) {
			return tx, entity, detail, "the refund period is past the maximum allowed days."
		}
		return tx, entity, detail, "the transaction is not eligible for a void or refund."
	}
	if !domain.CanTransition(tx.Status, domain.StatusRefunded) {
		return tx, entity, detail, "a transaction in status " + string(tx.Status) + " cannot be refunded."
	}

	found, err := s.processingDetails.Get(ctx, tx.Key, ext)
	if err != nil && !isNotFound(err) {
		logger.Error("refund service processing detail lookup failed", err, fields)
		return tx, entity, detail, generalError
	}
	if found == nil {
		return tx, entity, detail, "no processing detail was found for this transaction."
	}

	return tx, entity, *found, ""
}

func resolveGatewayRequest(cmd VoidRefundCommand, tx domain.Transaction, detail domain.ProcessingDetail, client domain.GatewayClient) (domain.GatewayRequest, error) {
	gatewayTransactionID := strings.TrimSpace(cmd.GatewayTransactionID)
	if gatewayTransactionID == "" {
		if resolver, ok := client.(domain.ParameterResolver); ok {
			gatewayTransactionID = resolver.GatewayTransactionID(detail)
		} else {
			gatewayTransactionID = detail.TransactionID
		}
	}

	rawMerchantProfileID := strings.TrimSpace(cmd.MerchantProfileID)
	if rawMerchantProfileID == "" {
		rawMerchantProfileID = strings.TrimSpace(detail.MerchantProfileID)
	}
	merchantProfileID, err := strconv.ParseInt(rawMerchantProfileID, 10, 64)
	if err != nil {
		return domain.GatewayRequest{}, fmt.Errorf("the merchant profile id %q is not numeric", rawMerchantProfileID)
	}

	paymentMethodID := strings.TrimSpace(cmd.PaymentMethodID)
	if paymentMethodID == "" {
		paymentMethodID = strings.TrimSpace(detail.PaymentMethodID)
	}

	if gatewayTransactionID == "" {
		return domain.GatewayRequest{}, fmt.Errorf("the gateway transaction id is missing")
	}

	return domain.GatewayRequest{
		TransactionKey:         tx.Key,
		ExternalTrackingNumber: cmd.ExternalTrackingNumber,
		GatewayTransactionID:   gatewayTransactionID,
		MerchantProfileID:      merchantProfileID,
		PaymentMethodID:        paymentMethodID,
	}, nil
}

func isDecline(client domain.GatewayClient, resp domain.GatewayResponse) bool {
	classifier, ok := client.(domain.ResponseClassifier)
	return ok && classifier.IsDecline(resp)
}

func isSoftFailure(client domain.GatewayClient, resp domain.GatewayResponse) bool {
	classifier, ok := client.(domain.ResponseClassifier)
	return ok && classifier.IsSoftFailure(resp)
}

func (s *RefundService) recordRefundAttempt(ctx context.Context, tx domain.Transaction, client domain.GatewayClient, resp domain.GatewayResponse, actor string) error {
	comment := s.refundLogComment(client, resp)
	err := s.refundRecords.Insert(ctx, domain.RefundRecord{
		TransactionKey: tx.Key,
		Type:           refundRecordTypeRefund,
		ResultCode:     resp.ResultCode,
		Message:        resp.Message,
		Reference:      resp.Reference,
		Comment:        comment,
	})
	if err != nil {
		return &domain.PersistenceError{Op: "insert refund record", Err: err}
	}
	if err := s.auditLog.Append(ctx, domain.NewTransactionLog(tx.Key, actor, domain.ActionRefund, comment)); err != nil {
		return &domain.PersistenceError{Op: "append refund log", Err: err}
	}
	return nil
}

func (s *RefundService) refundLogComment(client domain.GatewayClient, resp domain.GatewayResponse) string {
	switch {
	case resp.Refunded():
		return "Refund Successful " + s.now().Format(refundTimeLayout)
	case resp.AlreadyRefunded:
		return alreadyRefundedComment
	case isSoftFailure(client, resp):
		return softFailureComment
	case resp.ResultCode == "" && resp.Message == "":
		return failedGatewayComment
	default:
		return fmt.Sprintf("Refund Failed: %s - %s", resp.ResultCode, resp.Message)
	}
}

func (s *RefundService) updateStatus(ctx context.Context, tx domain.Transaction, status domain.TransactionStatus, actor string) error {
	if err := domain.ValidateTransition(tx.Status, status); err != nil {
		return err
	}

	updated, err := s.transactions.UpdateStatus(ctx, domain.StatusUpdate{
		Key:             tx.Key,
		Status:          status,
		Actor:           actor,
		ExpectedVersion: tx.Version,
	})
	if err != nil {
		return &domain.PersistenceError{Op: "update transaction status", Err: err}
	}
	if !updated {
		return &domain.PersistenceError{Op: "update transaction status", Err: domain.ErrStaleVersion}
	}
	return nil
}

// submitClientSettlement debits the owning entity for a refund the processor already paid out.
func (s *RefundService) submitClientSettlement(ctx context.Context, tx domain.Transaction, entity domain.EntityAccount, actor string) error {
	account, err := s.cipher.Decrypt(entity.SettlementAccountNumber)
	if err != nil {
		return fmt.Errorf("decrypt settlement account: %w", err)
	}

	transfer, err := s.funds.SubmitTransfer(ctx, domain.TransferRequest{
		EntityID:             tx.EntityID,
		Type:                 domain.TransferTypeClientRefund,
		Amount:               tx.Amount.Abs(),
		RoutingNumber:        entity.RoutingNumber,
		AccountType:          entity.SettlementAccountType,
		AccountNumber:        account,
		BatchType:            domain.BatchTypeACHSettlement,
		Description:          "REF " + entity.InstitutionName,
		SourceApp:            domain.SourceAppPortal,
		SystemCode:           domain.SystemCodeDebit,
		CustomerNumber:       entity.ACHCustomerNumber,
		BankNumber:           entity.BankNumber,
		SubmittedAt:          s.now(),
		Source:               domain.SourceOnline,
		SourceKey:            tx.Key,
		SourceTrackingNumber: tx.TrackingNumber,
	})
	if err != nil {
		return err
	}
	moneyMovements.WithLabelValues(string(domain.TransferTypeClientRefund)).Inc()

	entry := domain.NewTransferLog(transfer.ID, actor, domain.ActionSubmitted, "Submitted for a Refund of tracking number: "+tx.TrackingNumber)
	if err := s.auditLog.Append(ctx, entry); err != nil {
		logger.Error("refund service client settlement log failed", err, logger.Fields{
			"key":                    tx.Key,
			"transferTrackingNumber": transfer.TrackingNumber,
		})
	}
	return nil
}

func (s *RefundService) postRefundToCore(ctx context.Context, tx domain.Transaction, actor string) error {
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

	return s.core.Post(ctx, domain.CoreEvent{
		Type:            domain.CoreEventReversal,
		TransactionKey:  tx.Key,
		TrackingNumber:  tx.ExternalTrackingNumber,
		Status:          domain.StatusRefunded,
		Actor:           actor,
		PortalAccountID: mapping.PortalAccountID,
	})
}

func (s *RefundService) postRefundUpdateFailedAlert(ctx context.Context, cmd VoidRefundCommand, tx domain.Transaction, fields logger.Fields) {
	err := s.alerts.Post(ctx, domain.AlertRefundUpdateFailed, domain.AlertDetails{
		TrackingNumber:  cmd.ExternalTrackingNumber,
		PortalAccountID: cmd.Actor.PortalAccountID,
		EntityID:        tx.EntityID,
		Amount:          tx.Amount,
		IndividualName:  tx.IndividualName,
	})
	if err != nil {
		logger.Error("refund service post refund update alert failed", &domain.NotificationError{Channel: "alert", Err: err}, fields)
	}
}

func (s *RefundService) voidRefundFailure(
	ctx context.Context,
	cmd VoidRefundCommand,
	tx domain.Transaction,
	sendAlert bool,
	message string,
	cause error,
	fields logger.Fields,
) *domain.VoidRefundError {
	if sendAlert {
		s.postRefundUpdateFailedAlert(ctx, cmd, tx, fields)
	}
	logger.Error("refund service void or refund failed", cause, fields)
	return &domain.VoidRefundError{ExternalTrackingNumber: cmd.ExternalTrackingNumber, Message: message, Err: cause}
}

func (s *RefundService) policyInput(tx domain.Transaction, entity domain.EntityAccount) domain.ReversalPolicyInput {
	return domain.ReversalPolicyInput{
		Transaction:  tx,
		HandlesCards: entity.HandlesCards,
		RunTime:      entity.PaymentRunTime,
		Now:          s.now(),
	}
}
