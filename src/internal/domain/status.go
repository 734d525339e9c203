package domain

import (
	"fmt"
	"strings"
)

type TransactionStatus string

const (
	StatusPending           TransactionStatus = "PENDING"
	StatusApproved          TransactionStatus = "APPROVED"
	StatusFunded            TransactionStatus = "FUNDED"
	StatusDeclined          TransactionStatus = "DECLINED"
	StatusDeleted           TransactionStatus = "DELETED"
	StatusReversalRequested TransactionStatus = "REVERSAL REQUEST"
	StatusReversalComplete  TransactionStatus = "REVERSAL COMPLETE"
	StatusRefunded          TransactionStatus = "REFUNDED"
)

// StatusUnknown is reported for lookups that match no transaction. It is never persisted.
const StatusUnknown = "UNKNOWN"

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:           {StatusApproved, StatusFunded, StatusDeclined, StatusDeleted, StatusRefunded},
	StatusApproved:          {StatusFunded, StatusDeclined, StatusRefunded, StatusReversalRequested, StatusReversalComplete},
	StatusFunded:            {StatusDeclined, StatusRefunded, StatusReversalRequested, StatusReversalComplete},
	StatusReversalRequested: {StatusReversalComplete},
	StatusDeclined:          {},
	StatusDeleted:           {},
	StatusRefunded:          {},
	StatusReversalComplete:  {},
}

// Statuses an operator may move between when correcting a record by hand.
var manualStatuses = map[TransactionStatus]struct{}{
	StatusPending:  {},
	StatusApproved: {},
	StatusFunded:   {},
	StatusDeclined: {},
	StatusDeleted:  {},
	StatusRefunded: {},
}

func ParseStatus(raw string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToUpper(strings.Join(strings.Fields(raw), " ")))
	if _, ok := allowedTransitions[status]; !ok {
		return "", fmt.Errorf("unknown transaction status %q", raw)
	}
	return status, nil
}

func (s TransactionStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s TransactionStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

func CanTransition(from, to TransactionStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ValidateTransition(from, to TransactionStatus) error {
	if !from.Valid() {
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func CanTransitionManually(from, to TransactionStatus) bool {
	if from == to {
		return false
	}
	_, fromOK := manualStatuses[from]
	_, toOK := manualStatuses[to]
	return fromOK && toOK
}
