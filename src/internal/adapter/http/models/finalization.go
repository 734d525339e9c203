package models

import "strings"

type FinalizeRequest struct {
	Key            int64  `json:"key"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

// Validate only checks the shape of the body. Status and tracking number rules are
// enforced by the finalization service.
func (r FinalizeRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Status) == "" {
		errs = append(errs, "status is required")
	}
	return joinErrors(errs)
}

type ManualUpdateRequest struct {
	FinalizeRequest
	TicketRef string `json:"ticketRef"`
}
