package domain

import (
	"errors"
	"testing"
)

func TestParseStatusNormalizesInput(t *testing.T) {
	status, err := ParseStatus("  reversal   request ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusReversalRequested {
		t.Fatalf("expected %q, got %q", StatusReversalRequested, status)
	}

	if _, err := ParseStatus("SETTLED"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	for _, status := range []TransactionStatus{StatusDeclined, StatusDeleted, StatusRefunded, StatusReversalComplete} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
		if CanTransition(status, StatusApproved) {
			t.Fatalf("expected no transition out of %s", status)
		}
	}
	if StatusPending.Terminal() {
		t.Fatal("expected PENDING not to be terminal")
	}
}

func TestValidateTransition(t *testing.T) {
	if err := ValidateTransition(StatusFunded, StatusReversalRequested); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateTransition(StatusPending, StatusReversalComplete); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := ValidateTransition("BOGUS", StatusApproved); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for unknown status, got %v", err)
	}
}

func TestCanTransitionManually(t *testing.T) {
	if !CanTransitionManually(StatusDeclined, StatusApproved) {
		t.Fatal("expected operators to correct a declined payment")
	}
	if CanTransitionManually(StatusApproved, StatusApproved) {
		t.Fatal("expected same status to be rejected")
	}
	if CanTransitionManually(StatusReversalComplete, StatusFunded) {
		t.Fatal("expected reversal statuses to stay out of manual updates")
	}
}
