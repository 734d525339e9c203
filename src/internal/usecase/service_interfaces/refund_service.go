package service_interfaces

import (
	"context"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
)

type RefundService interface {
	RefundCardTransaction(ctx context.Context, cmd services.RefundCommand) domain.Outcome
	VoidOrRefundPending(ctx context.Context, cmd services.VoidRefundCommand) error
	GetTransactionStatus(ctx context.Context, externalTrackingNumber string) string
}

var _ RefundService = (*services.RefundService)(nil)
