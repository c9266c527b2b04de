package domain

import (
	"errors"
	"fmt"
)

// Kind buckets every failure the settlement core can report.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindStateConflict          Kind = "state_conflict"
	KindExternalProcessor      Kind = "external_processor"
	KindPartialSettlement      Kind = "partial_settlement"
	KindReconciliationRequired Kind = "reconciliation_required"
)

// Error is the structured error returned by the settlement core. Code is a
// stable machine-readable tag ("nothing_to_pay", "already_captured", ...);
// ReservationID and ProcessorRef carry enough context for a safe retry or a
// manual reconciliation.
type Error struct {
	Kind          Kind
	Code          string
	Message       string
	ReservationID uint
	PayeeID       uint
	ProcessorRef  string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: msg}
}

func External(code, msg string, err error) *Error {
	return &Error{Kind: KindExternalProcessor, Code: code, Message: msg, Err: err}
}

func Partial(reservationID uint, processorRef, msg string) *Error {
	return &Error{
		Kind:          KindPartialSettlement,
		Code:          "partial_settlement",
		Message:       msg,
		ReservationID: reservationID,
		ProcessorRef:  processorRef,
	}
}

func Reconciliation(payeeID uint, processorRef, msg string) *Error {
	return &Error{
		Kind:         KindReconciliationRequired,
		Code:         "reconciliation_required",
		Message:      msg,
		PayeeID:      payeeID,
		ProcessorRef: processorRef,
	}
}

// AsError unwraps a *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	if de, ok := AsError(err); ok {
		return de.Kind == kind
	}
	return false
}

func IsCode(err error, code string) bool {
	if de, ok := AsError(err); ok {
		return de.Code == code
	}
	return false
}
