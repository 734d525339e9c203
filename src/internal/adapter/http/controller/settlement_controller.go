package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/models"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/service_interfaces"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
	"github.com/go-chi/chi/v5"
)

type SettlementController struct {
	service service_interfaces.SettlementService
}

func NewSettlementController(service service_interfaces.SettlementService) *SettlementController {
	return &SettlementController{service: service}
}

func (c *SettlementController) RegisterRoutes(r chi.Router) {
	r.Put("/settlements/{trackingNumber}", c.edit)
	r.Post("/settlements/{trackingNumber}/resubmit", c.resubmit)
}

func (c *SettlementController) edit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SettlementEditRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome := c.service.EditSettlement(r.Context(), services.SettlementEditCommand{
		TrackingNumber: chi.URLParam(r, "trackingNumber"),
		Amount:         req.Amount,
		RoutingNumber:  req.RoutingNumber,
		AccountType:    req.AccountType,
		AccountNumber:  req.AccountNumber,
		Comments:       req.Comments,
		Changes:        req.Changes,
		Actor:          actorFromRequest(r),
	})
	writeOutcome(w, r, outcome, start)
}

func (c *SettlementController) resubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SettlementResubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome := c.service.ResubmitSettlement(r.Context(), services.SettlementResubmitCommand{
		TrackingNumber: chi.URLParam(r, "trackingNumber"),
		RoutingNumber:  req.RoutingNumber,
		AccountType:    req.AccountType,
		AccountNumber:  req.AccountNumber,
		Comments:       req.Comments,
		Actor:          actorFromRequest(r),
	})
	writeOutcome(w, r, outcome, start)
}
