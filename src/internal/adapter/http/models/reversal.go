package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ReversalRequest struct {
	Reason string `json:"reason"`
}

func (r ReversalRequest) Validate() error {
	var errs []string
	if len(r.Reason) > 500 {
		errs = append(errs, "reason must not exceed 500 characters")
	}
	return joinErrors(errs)
}

type ReversalApprovalRequest struct {
	IsFundsRecovery bool            `json:"isFundsRecovery"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
}

func (r ReversalApprovalRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	if r.IsFundsRecovery && r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero when recovering funds")
	}
	return joinErrors(errs)
}
