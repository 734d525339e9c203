package service_interfaces

import (
	"context"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
)

type FinalizationService interface {
	Finalize(ctx context.Context, cmd services.FinalizeCommand) (domain.Outcome, error)
	ManualUpdate(ctx context.Context, cmd services.ManualUpdateCommand) (domain.Outcome, error)
}

var _ FinalizationService = (*services.FinalizationService)(nil)
