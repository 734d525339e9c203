package domain

import "strings"

// InvalidRequestMessage is the sentinel message returned when a request fails its precondition gate.
const InvalidRequestMessage = "INVALID"

const defaultFailureMessage = "Unable to process request right now. Please contact support."

// Outcome is the result of an orchestrated operation. Success holds exactly when UserMessage is empty.
type Outcome struct {
	Success     bool
	UserMessage string
	Cause       error
}

func Succeeded() Outcome {
	return Outcome{Success: true}
}

func Failed(message string, cause error) Outcome {
	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultFailureMessage
	}
	return Outcome{UserMessage: message, Cause: cause}
}

func InvalidRequest() Outcome {
	return Outcome{UserMessage: InvalidRequestMessage, Cause: ErrInvalidRequest}
}

func (o Outcome) IsInvalidRequest() bool {
	return !o.Success && o.UserMessage == InvalidRequestMessage
}
