package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func TestSubmitTransfer_RejectsBeforeWriting(t *testing.T) {
	repo := NewClientTransferRepository(nil)

	tests := []struct {
		name string
		req  domain.TransferRequest
		want string
	}{
		{
			name: "short routing number",
			req:  domain.TransferRequest{RoutingNumber: "12345", Amount: decimal.NewFromInt(10)},
			want: returnInvalidRouting,
		},
		{
			name: "zero amount",
			req:  domain.TransferRequest{RoutingNumber: "021000021", Amount: decimal.Zero},
			want: returnInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.SubmitTransfer(context.Background(), tc.req)
			var settlementErr *domain.SettlementError
			if !errors.As(err, &settlementErr) {
				t.Fatalf("expected settlement error, got %v", err)
			}
			if settlementErr.ReturnValue != tc.want {
				t.Fatalf("expected return value %s, got %s", tc.want, settlementErr.ReturnValue)
			}
		})
	}
}

func TestSettlementReturnValue(t *testing.T) {
	if got := settlementReturnValue(&pq.Error{Code: "23505"}); got != returnDuplicateTracking {
		t.Fatalf("expected %s, got %s", returnDuplicateTracking, got)
	}
	if got := settlementReturnValue(&pq.Error{Code: "23514", Constraint: routingNumberConstraint}); got != returnInvalidRouting {
		t.Fatalf("expected %s, got %s", returnInvalidRouting, got)
	}
	if got := settlementReturnValue(&pq.Error{Code: "23514", Constraint: "chk_client_transfers_amount"}); got != returnInvalidAmount {
		t.Fatalf("expected %s, got %s", returnInvalidAmount, got)
	}
	if got := settlementReturnValue(errors.New("connection reset")); got != "" {
		t.Fatalf("expected no return value, got %s", got)
	}
}

func TestNewTransferTrackingNumber(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 5, 6, 0, time.UTC)

	reversal := newTransferTrackingNumber(domain.TransferRequest{Type: domain.TransferTypeClientReversal}, now)
	if !strings.HasPrefix(reversal, "REV260309140506") || len(reversal) != 19 {
		t.Fatalf("unexpected reversal tracking number %s", reversal)
	}

	refund := newTransferTrackingNumber(domain.TransferRequest{Type: domain.TransferTypeClientRefund}, now)
	if !strings.HasPrefix(refund, "REF") {
		t.Fatalf("unexpected refund tracking number %s", refund)
	}

	resubmission := newTransferTrackingNumber(domain.TransferRequest{
		Type:      domain.TransferTypeClientResubmission,
		BatchType: domain.BatchTypeLoanLevel,
	}, now)
	if !strings.HasPrefix(resubmission, "LLC") {
		t.Fatalf("unexpected resubmission tracking number %s", resubmission)
	}

	if newTransferTrackingNumber(domain.TransferRequest{}, now) == newTransferTrackingNumber(domain.TransferRequest{}, now) {
		t.Fatal("expected consecutive tracking numbers to differ")
	}
}
