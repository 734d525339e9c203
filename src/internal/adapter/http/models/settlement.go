package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type SettlementEditRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	RoutingNumber string          `json:"routingNumber"`
	AccountType   string          `json:"accountType"`
	AccountNumber string          `json:"accountNumber"`
	Comments      string          `json:"comments"`
	Changes       string          `json:"changes"`
}

func (r SettlementEditRequest) Validate() error {
	var errs []string
	if r.Amount.IsZero() {
		errs = append(errs, "amount must not be zero")
	}
	errs = append(errs, accountErrors(r.AccountType, r.AccountNumber)...)
	if strings.TrimSpace(r.Comments) == "" {
		errs = append(errs, "comments are required")
	}
	return joinErrors(errs)
}

type SettlementResubmitRequest struct {
	RoutingNumber string `json:"routingNumber"`
	AccountType   string `json:"accountType"`
	AccountNumber string `json:"accountNumber"`
	Comments      string `json:"comments"`
}

func (r SettlementResubmitRequest) Validate() error {
	var errs []string
	errs = append(errs, accountErrors(r.AccountType, r.AccountNumber)...)
	if strings.TrimSpace(r.Comments) == "" {
		errs = append(errs, "comments are required")
	}
	return joinErrors(errs)
}

func accountErrors(accountType, accountNumber string) []string {
	var errs []string
	if strings.TrimSpace(accountType) == "" {
		errs = append(errs, "accountType is required")
	}
	if n := strings.TrimSpace(accountNumber); n == "" || len(n) > 17 {
		errs = append(errs, "accountNumber must be between 1 and 17 characters")
	}
	return errs
}
