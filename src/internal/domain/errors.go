package domain

import (
	"errors"
	"fmt"
)

var ErrRecordNotFound = errors.New("Record not found")
var ErrInvalidRequest = errors.New("invalid request")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrStaleVersion = errors.New("transaction was modified by another request")

// ValidationError is bad input detected before any side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SettlementError is a money movement rejected by the settlement subsystem.
// ReturnValue carries the coded result ("^12", "0", ...).
type SettlementError struct {
	ReturnValue string
	Err         error
}

func (e *SettlementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("settlement rejected (return value %q): %v", e.ReturnValue, e.Err)
	}
	return fmt.Sprintf("settlement rejected (return value %q)", e.ReturnValue)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

type GatewayError struct {
	Family  GatewayFamily
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s gateway failure", e.Family)
	if e.Code != "" {
		msg += fmt.Sprintf(" (code %s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// PersistenceError is a local record write that failed after an upstream side effect committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError is an alert, email or core post failure. It is logged and never surfaced.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

type VoidRefundError struct {
	ExternalTrackingNumber string
	Message                string
	Err                    error
}

func (e *VoidRefundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *VoidRefundError) Unwrap() error {
	return e.Err
}
