package service_interfaces

import (
	"context"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
)

type SettlementService interface {
	EditSettlement(ctx context.Context, cmd services.SettlementEditCommand) domain.Outcome
	ResubmitSettlement(ctx context.Context, cmd services.SettlementResubmitCommand) domain.Outcome
}

var _ SettlementService = (*services.SettlementService)(nil)
