package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/models"
	"github.com/api-sage/payment-reversal-engine/src/internal/commons"
	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	headerUserID          = "X-User-Id"
	headerUserName        = "X-User-Name"
	headerPortalAccountID = "X-Portal-Account-Id"
)

func respond[T any](w http.ResponseWriter, r *http.Request, status int, response commons.Response[T], start time.Time) {
	response = response.WithRequestID(middleware.GetReqID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
	logResponse(r, status, response, start)
}

// actorFromRequest reads the caller identity forwarded by the portal gateway.
func actorFromRequest(r *http.Request) domain.Actor {
	userID, _ := strconv.ParseInt(strings.TrimSpace(r.Header.Get(headerUserID)), 10, 64)
	portalAccountID, _ := strconv.ParseInt(strings.TrimSpace(r.Header.Get(headerPortalAccountID)), 10, 64)
	return domain.Actor{
		UserID:          userID,
		Name:            strings.TrimSpace(r.Header.Get(headerUserName)),
		PortalAccountID: portalAccountID,
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func outcomeStatus(outcome domain.Outcome) int {
	var validationErr *domain.ValidationError
	var gatewayErr *domain.GatewayError
	switch {
	case outcome.Success:
		return http.StatusOK
	case outcome.IsInvalidRequest():
		return http.StatusBadRequest
	case errors.As(outcome.Cause, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(outcome.Cause, &gatewayErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeOutcome(w http.ResponseWriter, r *http.Request, outcome domain.Outcome, start time.Time) {
	status := outcomeStatus(outcome)
	data := models.OutcomeResponse{Success: outcome.Success, UserMessage: outcome.UserMessage}

	if outcome.Success {
		respond(w, r, status, commons.SuccessResponse("operation completed", data), start)
		return
	}
	if outcome.Cause != nil {
		logError(r, outcome.Cause, nil)
	}
	respond(w, r, status, commons.FailureResponse(outcome.UserMessage, data), start)
}

// writeBadRequest echoes field validation problems only. Any other cause is logged and withheld.
func writeBadRequest[T any](w http.ResponseWriter, r *http.Request, message string, err error, start time.Time) {
	logError(r, err, nil)
	var fieldErrs models.ValidationErrors
	if errors.As(err, &fieldErrs) {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[T](message, fieldErrs...), start)
		return
	}
	respond(w, r, http.StatusBadRequest, commons.ErrorResponse[T](message), start)
}
