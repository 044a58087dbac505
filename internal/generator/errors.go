package generator

import "errors"

// FailureReason classifies why no document could be produced.
type FailureReason string

const (
	ReasonNoContractDeclaration FailureReason = "no_contract_declaration"
	ReasonNoIntentFunctions     FailureReason = "no_intent_functions"
	ReasonUnreadableSource      FailureReason = "unreadable_source"
)

var reasonMessages = map[FailureReason]string{
	ReasonNoContractDeclaration: "file does not contain a contract declaration",
	ReasonNoIntentFunctions:     "no function with @custom:agent-intent found",
	ReasonUnreadableSource:      "failed to read source",
}

// ExtractError is the failure value returned by extraction.
type ExtractError struct {
	Reason FailureReason
	Detail string
	Err    error
}

// Sentinels for errors.Is. Any *ExtractError with the same Reason matches.
var (
	ErrNoContractDeclaration = &ExtractError{Reason: ReasonNoContractDeclaration}
	ErrNoIntentFunctions     = &ExtractError{Reason: ReasonNoIntentFunctions}
	ErrUnreadableSource      = &ExtractError{Reason: ReasonUnreadableSource}
)

func (e *ExtractError) Error() string {
	msg, ok := reasonMessages[e.Reason]
	if !ok {
		msg = string(e.Reason)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is matches any ExtractError carrying the same reason.
func (e *ExtractError) Is(target error) bool {
	t, ok := target.(*ExtractError)
	return ok && t.Reason == e.Reason
}

// ReasonOf returns the failure reason carried by err, if any.
func ReasonOf(err error) (FailureReason, bool) {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Reason, true
	}
	return "", false
}
