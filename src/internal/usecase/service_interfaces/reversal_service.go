package service_interfaces

import (
	"context"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
)

type ReversalService interface {
	RequestReversal(ctx context.Context, cmd services.ReversalRequestCommand) domain.Outcome
	ApproveReversal(ctx context.Context, cmd services.ReversalApprovalCommand) domain.Outcome
}

var _ ReversalService = (*services.ReversalService)(nil)
