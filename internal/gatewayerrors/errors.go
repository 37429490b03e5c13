// Package gatewayerrors implements the error taxonomy from spec §7: every
// error the gateway and signal engine surface carries one of these codes
// so callers can branch on category rather than string-match messages.
package gatewayerrors

import (
	"errors"
	"fmt"
)

// Code is one category of the §7 taxonomy.
type Code string

const (
	Config        Code = "CONFIG"
	Auth          Code = "AUTH"
	ClockSkew     Code = "CLOCK_SKEW"
	RateLimited   Code = "RATE_LIMITED"
	Maintenance   Code = "MAINTENANCE"
	MarketClosed  Code = "MARKET_CLOSED"
	Validation    Code = "VALIDATION"
	Transport     Code = "TRANSPORT"
	WSConsumerStall Code = "WS_CONSUMER_STALL"
	Internal      Code = "INTERNAL"
	Cancelled     Code = "CANCELLED"
)

// Error wraps an underlying cause with a taxonomy code and, for
// broker-originated failures, the broker's own message code (e.g.
// "ERR-5003") for audit purposes.
type Error struct {
	Code        Code
	BrokerCode  string
	Message     string
	Cause       error
}

func (e *Error) Error() string {
	if e.BrokerCode != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.BrokerCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a tagged error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap tags an existing error with a taxonomy code.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithBrokerCode attaches the broker's original message_code for auditability.
func (e *Error) WithBrokerCode(code string) *Error {
	e.BrokerCode = code
	return e
}

// CodeOf extracts the taxonomy code from err, defaulting to INTERNAL for
// errors that never passed through this package — per §7, nothing is
// silently swallowed.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	if err == nil {
		return ""
	}
	return Internal
}

// Retryable reports whether the gateway's retry policy (§4.3) applies:
// rate limiting, transport failures and maintenance windows are
// transient; everything else is not.
func Retryable(code Code) bool {
	switch code {
	case RateLimited, Transport, Maintenance:
		return true
	default:
		return false
	}
}

// messageCodeTaxonomy maps the broker's documented message_code values to
// this taxonomy (§7).
var messageCodeTaxonomy = map[string]Code{
	"ERR-5003": RateLimited,
	"ERR-5010": Auth,
	"ERR-5011": Auth,
	"ERR-5012": Auth,
	"ERR-5126": Validation,
	"ERR-5201": Maintenance,
	"ERR-5202": Maintenance,
	"ERR-5218": MarketClosed,
}

// FromBrokerCode maps one broker message_code to this taxonomy, defaulting
// to VALIDATION for unrecognised client-facing rejections.
func FromBrokerCode(brokerCode, message string) *Error {
	code, ok := messageCodeTaxonomy[brokerCode]
	if !ok {
		code = Validation
	}
	return (&Error{Code: code, Message: message}).WithBrokerCode(brokerCode)
}
