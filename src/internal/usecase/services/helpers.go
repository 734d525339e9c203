package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const contactSupport = "Please contact support."

const (
	returnValueSuccess = "1"
	invalidResponse    = "Invalid response"
)

var trackingNumberPattern = regexp.MustCompile(`^[AaVv][A-Za-z0-9]{11,24}$`)

const invalidTrackingNumberMessage = `Please enter a valid Tracking Number. A valid Tracking Number starts with the letter "V" or "A" and contains 12 - 25 alpha-numeric characters.`

// describeReturnValue turns a settlement return value into a user-readable error.
// An empty result means the value reports success.
func describeReturnValue(ctx context.Context, codes domain.ErrorCodeStore, returnValue string) string {
	value := strings.TrimSpace(returnValue)
	switch {
	case value == "" || value == returnValueSuccess:
		return ""
	case strings.HasPrefix(value, "^"):
		code := strings.TrimPrefix(value, "^")
		if codes == nil {
			return "Settlement error code " + code
		}
		description, err := codes.Describe(ctx, code)
		if err != nil || strings.TrimSpace(description) == "" {
			if err != nil {
				logger.Error("settlement error code lookup failed", err, logger.Fields{"code": code})
			}
			return "Settlement error code " + code
		}
		return strings.TrimSpace(description)
	default:
		return invalidResponse
	}
}

func settlementFailureDescription(ctx context.Context, codes domain.ErrorCodeStore, err error) string {
	var settlementErr *domain.SettlementError
	if errors.As(err, &settlementErr) {
		if description := describeReturnValue(ctx, codes, settlementErr.ReturnValue); description != "" {
			return description
		}
	}
	return "the settlement system did not accept the transfer"
}

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// formatCurrency renders an amount as US dollars, e.g. $1,234.50.
func formatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}

	rounded := amount.Abs().Round(2)
	_, cents, _ := strings.Cut(rounded.StringFixed(2), ".")
	return sign + "$" + usdPrinter.Sprintf("%d", rounded.IntPart()) + "." + cents
}

func actorName(actor domain.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return domain.SystemActor
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}
