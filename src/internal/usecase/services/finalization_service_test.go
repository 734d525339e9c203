package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
)

type finalizationFixture struct {
	txManager     *fakeTxManager
	transactions  *fakeTransactions
	auditLog      *fakeAuditLog
	notifications *fakeNotifications
	mappings      fakeMappings
	core          *fakeCore
}

func newFinalizationFixture(txs ...domain.Transaction) *finalizationFixture {
	return &finalizationFixture{
		txManager:     &fakeTxManager{},
		transactions:  newFakeTransactions(txs...),
		auditLog:      &fakeAuditLog{},
		notifications: &fakeNotifications{notification: &domain.Notification{ID: 77, TransactionKey: 42}},
		mappings:      fakeMappings{mapping: &domain.CoreMapping{EntityID: 7, PortalAccountID: 900, CoreID: "SYM"}},
		core:          &fakeCore{},
	}
}

func (f *finalizationFixture) service() *services.FinalizationService {
	return services.NewFinalizationService(f.txManager, f.transactions, f.auditLog, f.notifications, f.mappings, f.core)
}

func (f *finalizationFixture) writes() int {
	return f.transactions.writes() + len(f.auditLog.entries) + len(f.notifications.removed) + len(f.notifications.marked)
}

func pendingCardTransaction() domain.Transaction {
	return domain.Transaction{
		Key:                    42,
		TrackingNumber:         "CARD000042",
		ExternalTrackingNumber: "A123456789012",
		EntityID:               7,
		Kind:                   domain.TransactionKindCard,
		PaymentType:            domain.PaymentTypeCreditCard,
		Status:                 domain.StatusPending,
		Amount:                 mustDecimal("80.00"),
		Version:                1,
	}
}

func TestFinalizeAssignsTrackingNumberAndStatus(t *testing.T) {
	f := newFinalizationFixture(pendingCardTransaction())

	outcome, err := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "V987654321098",
		Actor:          reviewer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.UserMessage)
	}

	stored := f.transactions.txs[42]
	if stored.Status != domain.StatusApproved || stored.ExternalTrackingNumber != "V987654321098" {
		t.Fatalf("unexpected stored transaction %+v", stored)
	}
	if len(f.transactions.splitTrackingUpdates) != 1 || f.transactions.splitTrackingUpdates[0] != "V987654321098" {
		t.Fatalf("expected split payments to follow the tracking number, got %v", f.transactions.splitTrackingUpdates)
	}

	updates := f.auditLog.withAction(domain.ActionUpdated)
	if len(updates) != 2 {
		t.Fatalf("expected two update logs, got %d", len(updates))
	}
	if updates[0].Comment != "Tracking Number updated from A123456789012 to V987654321098." {
		t.Fatalf("unexpected tracking log %q", updates[0].Comment)
	}
	if updates[1].Comment != "Status updated from PENDING to APPROVED." {
		t.Fatalf("unexpected status log %q", updates[1].Comment)
	}

	if len(f.notifications.marked) != 1 || f.notifications.marked[0] != 77 {
		t.Fatalf("expected notification to be queued for print, got %v", f.notifications.marked)
	}
	if len(f.core.events) != 1 || f.core.events[0].Type != domain.CoreEventPayment || f.core.events[0].TrackingNumber != "V987654321098" {
		t.Fatalf("expected one payment core event, got %+v", f.core.events)
	}
}

func TestFinalizeInvalidTrackingNumberWritesNothing(t *testing.T) {
	f := newFinalizationFixture(pendingCardTransaction())

	outcome, err := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "X12",
	})
	if err != nil {
		t.Fatalf("validation failures should not return an error: %v", err)
	}
	if !strings.HasPrefix(outcome.UserMessage, "Please enter a valid Tracking Number.") {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
	if f.txManager.calls != 0 || f.writes() != 0 {
		t.Fatalf("expected no unit of work and no writes, got %d calls and %d writes", f.txManager.calls, f.writes())
	}
}

func TestFinalizeRejectsTrackingNumberInUse(t *testing.T) {
	other := pendingCardTransaction()
	other.Key = 43
	other.ExternalTrackingNumber = "V987654321098"
	f := newFinalizationFixture(pendingCardTransaction(), other)

	outcome, err := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "V987654321098",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.UserMessage != "Tracking Number V987654321098 is already in use by other transaction." {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
	if f.writes() != 0 {
		t.Fatalf("expected no writes, got %d", f.writes())
	}
}

func TestFinalizeAlreadyFinalized(t *testing.T) {
	tx := pendingCardTransaction()
	tx.Status = domain.StatusApproved
	f := newFinalizationFixture(tx)

	outcome, _ := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:            42,
		Status:         domain.StatusFunded,
		TrackingNumber: "V987654321098",
	})
	if outcome.UserMessage != "Status is already updated for this Tracking Number." {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
}

func TestFinalizeDeletedKeepsTrackingNumber(t *testing.T) {
	f := newFinalizationFixture(pendingCardTransaction())

	outcome, err := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:    42,
		Status: domain.StatusDeleted,
		Actor:  reviewer,
	})
	if err != nil || !outcome.Success {
		t.Fatalf("expected success, got %q (%v)", outcome.UserMessage, err)
	}

	stored := f.transactions.txs[42]
	if stored.Status != domain.StatusDeleted || stored.ExternalTrackingNumber != "A123456789012" {
		t.Fatalf("unexpected stored transaction %+v", stored)
	}
	if len(f.transactions.splitTrackingUpdates) != 0 {
		t.Fatalf("expected split payments untouched, got %v", f.transactions.splitTrackingUpdates)
	}
	if len(f.notifications.removed) != 1 {
		t.Fatalf("expected notification to be removed, got %v", f.notifications.removed)
	}
	if updates := f.auditLog.withAction(domain.ActionUpdated); len(updates) != 1 {
		t.Fatalf("expected only the status log, got %d", len(updates))
	}
	if len(f.core.notApplicable) != 1 || len(f.core.events) != 0 {
		t.Fatalf("expected core messages marked not applicable, got %v / %+v", f.core.notApplicable, f.core.events)
	}
	if notes := f.auditLog.withAction(domain.ActionCorePosting); len(notes) != 1 {
		t.Fatalf("expected a core posting note, got %d", len(notes))
	}
}

func TestFinalizeRollsBackOnLogFailure(t *testing.T) {
	f := newFinalizationFixture(pendingCardTransaction())
	f.auditLog.appendFn = func(domain.AuditLogEntry) error { return errBoom }

	outcome, err := f.service().Finalize(context.Background(), services.FinalizeCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "V987654321098",
	})
	if err == nil {
		t.Fatal("expected the unit of work error to be returned")
	}
	if f.txManager.err == nil {
		t.Fatal("expected the unit of work to see the failure")
	}
	if outcome.Success || !strings.HasPrefix(outcome.UserMessage, "Unable to update the transaction right now.") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(f.core.events) != 0 {
		t.Fatalf("expected no core post after rollback, got %+v", f.core.events)
	}
}

func TestManualUpdateRequiresChange(t *testing.T) {
	tx := pendingCardTransaction()
	tx.Status = domain.StatusApproved
	f := newFinalizationFixture(tx)

	outcome, err := f.service().ManualUpdate(context.Background(), services.ManualUpdateCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "A123456789012",
		TicketRef:      "INC-1001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.UserMessage != "The Tracking Number and/or Status must be a different value." {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
	if f.writes() != 0 {
		t.Fatalf("expected no writes, got %d", f.writes())
	}
}

func TestManualUpdateRequiresTicket(t *testing.T) {
	f := newFinalizationFixture(pendingCardTransaction())

	outcome, _ := f.service().ManualUpdate(context.Background(), services.ManualUpdateCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "V987654321098",
	})
	if outcome.UserMessage != "A support ticket number is required." {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
	if f.txManager.calls != 0 {
		t.Fatal("expected no unit of work")
	}
}

func TestManualUpdateChangesTrackingNumberAndStatus(t *testing.T) {
	tx := pendingCardTransaction()
	tx.Status = domain.StatusApproved
	f := newFinalizationFixture(tx)

	outcome, err := f.service().ManualUpdate(context.Background(), services.ManualUpdateCommand{
		Key:            42,
		Status:         domain.StatusFunded,
		TrackingNumber: "V987654321098",
		TicketRef:      "INC-1001",
		Actor:          reviewer,
	})
	if err != nil || !outcome.Success {
		t.Fatalf("expected success, got %q (%v)", outcome.UserMessage, err)
	}

	updates := f.auditLog.withAction(domain.ActionUpdated)
	if len(updates) != 2 {
		t.Fatalf("expected two logs, got %d", len(updates))
	}
	for _, entry := range updates {
		if !strings.HasSuffix(entry.Comment, "for support ticket number: INC-1001.") {
			t.Fatalf("expected ticket reference in %q", entry.Comment)
		}
	}
	if stored := f.transactions.txs[42]; stored.Status != domain.StatusFunded || stored.ExternalTrackingNumber != "V987654321098" {
		t.Fatalf("unexpected stored transaction %+v", stored)
	}
}

func TestManualUpdateRejectsReversalStatus(t *testing.T) {
	tx := pendingCardTransaction()
	tx.Status = domain.StatusReversalComplete
	f := newFinalizationFixture(tx)

	outcome, _ := f.service().ManualUpdate(context.Background(), services.ManualUpdateCommand{
		Key:            42,
		Status:         domain.StatusApproved,
		TrackingNumber: "A123456789012",
		TicketRef:      "INC-1001",
	})
	if outcome.UserMessage != "Status cannot be changed from REVERSAL COMPLETE to APPROVED." {
		t.Fatalf("unexpected message %q", outcome.UserMessage)
	}
	if f.writes() != 0 {
		t.Fatalf("expected no writes, got %d", f.writes())
	}
}
