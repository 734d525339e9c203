package commons

import "strings"

// Response is the envelope of every API reply. RequestID echoes the router's
// X-Request-Id so a portal ticket can be matched to the server logs.
type Response[T any] struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	RequestID string   `json:"requestId,omitempty"`
	Data      *T       `json:"data,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: &data}
}

// FailureResponse keeps the payload of an operation that ran but did not succeed.
func FailureResponse[T any](message string, data T) Response[T] {
	return Response[T]{Message: message, Data: &data}
}

func ErrorResponse[T any](message string, errs ...string) Response[T] {
	var kept []string
	for _, e := range errs {
		if e = strings.TrimSpace(e); e != "" {
			kept = append(kept, e)
		}
	}
	return Response[T]{Message: message, Errors: kept}
}

func (r Response[T]) WithRequestID(id string) Response[T] {
	r.RequestID = id
	return r
}
