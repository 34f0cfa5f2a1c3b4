package domain

import (
	"errors"
	"fmt"
)

// Local precondition failures. These are raised before any remote call is
// made and always indicate a caller bug, never a gateway outcome.
var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentMethodNotFound   = errors.New("payment method not found")
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidPaymentState     = errors.New("payment is in an invalid state for this operation")
	ErrPaymentMethodRequired   = errors.New("payment has no payment method referenced")
	ErrMissingToken            = errors.New("payment details must contain a stripe_token")
	ErrPaymentAlreadyExists    = errors.New("payment already exists")
	ErrRemoteChargeIDImmutable = errors.New("remote charge id is already set")
)

// FailureKind classifies a remote-originated failure.
type FailureKind string

const (
	// FailureDecline is a card-level rejection; the customer may retry with
	// different payment details.
	FailureDecline FailureKind = "decline"
	// FailureHardDecline is a permanent rejection that must not be retried
	// with the same input (expired card, unsupported brand, 5xx-coded
	// validation failure).
	FailureHardDecline FailureKind = "hard_decline"
	// FailureInvalidRequest is a malformed or policy-violating request.
	FailureInvalidRequest FailureKind = "invalid_request"
	// FailureAuthentication is a credential misconfiguration.
	FailureAuthentication FailureKind = "authentication"
	// FailureInvalidResponse is a network, transport, or unexpected
	// remote-state failure; possibly transient.
	FailureInvalidResponse FailureKind = "invalid_response"
)

// GatewayError is a typed, caller-visible failure produced at the
// remote-error translation boundary. It is never swallowed; the lifecycle
// engine commits no state transition when one is returned.
type GatewayError struct {
	Kind    FailureKind
	Message string
	Code    int64
}

func (e *GatewayError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewDecline returns a Decline failure.
func NewDecline(message string) *GatewayError {
	return &GatewayError{Kind: FailureDecline, Message: message}
}

// NewHardDecline returns a HardDecline failure.
func NewHardDecline(message string, code int64) *GatewayError {
	return &GatewayError{Kind: FailureHardDecline, Message: message, Code: code}
}

// NewInvalidRequest returns an InvalidRequest failure.
func NewInvalidRequest(message string, code int64) *GatewayError {
	return &GatewayError{Kind: FailureInvalidRequest, Message: message, Code: code}
}

// NewAuthenticationFailure returns an Authentication failure.
func NewAuthenticationFailure(message string) *GatewayError {
	return &GatewayError{Kind: FailureAuthentication, Message: message}
}

// NewInvalidResponse returns an InvalidResponse failure.
func NewInvalidResponse(message string) *GatewayError {
	return &GatewayError{Kind: FailureInvalidResponse, Message: message}
}

// FailureKindOf returns the failure kind of err and true if err is (or
// wraps) a GatewayError.
func FailureKindOf(err error) (FailureKind, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return "", false
}

// IsHardDecline reports whether err is a HardDecline failure.
func IsHardDecline(err error) bool {
	kind, ok := FailureKindOf(err)
	return ok && kind == FailureHardDecline
}

// IsInvalidRequest reports whether err is an InvalidRequest failure.
func IsInvalidRequest(err error) bool {
	kind, ok := FailureKindOf(err)
	return ok && kind == FailureInvalidRequest
}
