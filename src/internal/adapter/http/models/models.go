package models

import "strings"

// OutcomeResponse is the data returned for every mutating operation.
type OutcomeResponse struct {
	Success     bool   `json:"success"`
	UserMessage string `json:"userMessage,omitempty"`
}

type StatusResponse struct {
	ExternalTrackingNumber string `json:"externalTrackingNumber"`
	Status                 string `json:"status"`
}

// ValidationErrors lists the request field problems that may be echoed to the caller.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return strings.Join(e, "; ")
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return value != ""
}
