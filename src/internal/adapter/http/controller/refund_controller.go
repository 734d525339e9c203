package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/models"
	"github.com/api-sage/payment-reversal-engine/src/internal/commons"
	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/service_interfaces"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
	"github.com/go-chi/chi/v5"
)

type RefundController struct {
	service service_interfaces.RefundService
}

func NewRefundController(service service_interfaces.RefundService) *RefundController {
	return &RefundController{service: service}
}

func (c *RefundController) RegisterRoutes(r chi.Router) {
	r.Post("/refunds/void", c.voidOrRefund)
	r.Post("/refunds/{key}", c.refund)
	r.Get("/transactions/{externalTrackingNumber}/status", c.status)
}

func (c *RefundController) refund(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	key, err := strconv.ParseInt(chi.URLParam(r, "key"), 10, 64)
	if err != nil || key <= 0 {
		if err == nil {
			err = errors.New("key must be positive")
		}
		writeBadRequest[models.OutcomeResponse](w, r, "invalid transaction key", err, start)
		return
	}

	outcome := c.service.RefundCardTransaction(r.Context(), services.RefundCommand{
		Key:   key,
		Actor: actorFromRequest(r),
	})
	writeOutcome(w, r, outcome, start)
}

func (c *RefundController) voidOrRefund(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.VoidRefundRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	err := c.service.VoidOrRefundPending(r.Context(), services.VoidRefundCommand{
		GatewayTransactionID:   req.GatewayTransactionID,
		MerchantProfileID:      req.MerchantProfileID,
		PaymentMethodID:        req.PaymentMethodID,
		ExternalTrackingNumber: req.ExternalTrackingNumber,
		Actor:                  actorFromRequest(r),
	})
	if err != nil {
		logError(r, err, nil)
		status := http.StatusInternalServerError
		var voidErr *domain.VoidRefundError
		if errors.As(err, &voidErr) {
			status = http.StatusUnprocessableEntity
		}
		respond(w, r, status, commons.ErrorResponse[models.OutcomeResponse](voidRefundMessage(err)), start)
		return
	}

	respond(w, r, http.StatusOK, commons.SuccessResponse("void or refund completed", models.OutcomeResponse{Success: true}), start)
}

func (c *RefundController) status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	ext := chi.URLParam(r, "externalTrackingNumber")
	response := commons.SuccessResponse("transaction status", models.StatusResponse{
		ExternalTrackingNumber: ext,
		Status:                 c.service.GetTransactionStatus(r.Context(), ext),
	})
	respond(w, r, http.StatusOK, response, start)
}

func voidRefundMessage(err error) string {
	var voidErr *domain.VoidRefundError
	if errors.As(err, &voidErr) && voidErr.Message != "" {
		return voidErr.Message
	}
	return "void or refund failed"
}
