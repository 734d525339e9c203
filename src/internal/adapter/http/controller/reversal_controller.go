package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/models"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/service_interfaces"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
	"github.com/go-chi/chi/v5"
)

type ReversalController struct {
	service service_interfaces.ReversalService
}

func NewReversalController(service service_interfaces.ReversalService) *ReversalController {
	return &ReversalController{service: service}
}

func (c *ReversalController) RegisterRoutes(r chi.Router) {
	r.Post("/reversals/{trackingNumber}/request", c.requestReversal)
	r.Post("/reversals/{trackingNumber}/approve", c.approveReversal)
}

func (c *ReversalController) requestReversal(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ReversalRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome := c.service.RequestReversal(r.Context(), services.ReversalRequestCommand{
		TrackingNumber: chi.URLParam(r, "trackingNumber"),
		Actor:          actorFromRequest(r),
		Reason:         req.Reason,
	})
	writeOutcome(w, r, outcome, start)
}

func (c *ReversalController) approveReversal(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ReversalApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome := c.service.ApproveReversal(r.Context(), services.ReversalApprovalCommand{
		TrackingNumber:  chi.URLParam(r, "trackingNumber"),
		Actor:           actorFromRequest(r),
		IsFundsRecovery: req.IsFundsRecovery,
		Amount:          req.Amount,
		Reason:          req.Reason,
	})
	writeOutcome(w, r, outcome, start)
}
