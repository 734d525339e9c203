package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/models"
	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/service_interfaces"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
	"github.com/go-chi/chi/v5"
)

type FinalizationController struct {
	service service_interfaces.FinalizationService
}

func NewFinalizationController(service service_interfaces.FinalizationService) *FinalizationController {
	return &FinalizationController{service: service}
}

func (c *FinalizationController) RegisterRoutes(r chi.Router) {
	r.Post("/finalizations", c.finalize)
	r.Post("/finalizations/manual", c.manualUpdate)
}

func (c *FinalizationController) finalize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FinalizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome, err := c.service.Finalize(r.Context(), services.FinalizeCommand{
		Key:            req.Key,
		Status:         parseStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
		Actor:          actorFromRequest(r),
	})
	if err != nil {
		logError(r, err, logger.Fields{"key": req.Key})
	}
	writeOutcome(w, r, outcome, start)
}

func (c *FinalizationController) manualUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ManualUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "invalid request body", err, start)
		return
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeBadRequest[models.OutcomeResponse](w, r, "validation failed", err, start)
		return
	}

	outcome, err := c.service.ManualUpdate(r.Context(), services.ManualUpdateCommand{
		Key:            req.Key,
		Status:         parseStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
		TicketRef:      req.TicketRef,
		Actor:          actorFromRequest(r),
	})
	if err != nil {
		logError(r, err, logger.Fields{"key": req.Key, "ticketRef": req.TicketRef})
	}
	writeOutcome(w, r, outcome, start)
}

// parseStatus keeps unknown values so the service reports them as invalid.
func parseStatus(raw string) domain.TransactionStatus {
	if status, err := domain.ParseStatus(raw); err == nil {
		return status
	}
	return domain.TransactionStatus(strings.TrimSpace(raw))
}
