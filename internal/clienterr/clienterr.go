// Package clienterr defines the error taxonomy for game server
// interactions. Every failure surfaced by the client or an action is
// classified into one Kind; the executor and loop decide retry versus
// surface versus abort from the Kind alone.
package clienterr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a game interaction failure.
type Kind string

const (
	// KindValidation: inputs violate preconditions locally; no API call
	// was made.
	KindValidation Kind = "validation"

	// KindNotFound: server returned 404 for an entity. Recoverable by
	// recording the entity as does-not-exist and skipping.
	KindNotFound Kind = "not_found"

	// KindCooldown: server refused because the character is still on
	// cooldown (status 499). The executor re-syncs and retries once.
	KindCooldown Kind = "cooldown"

	// KindAlreadyAtDestination: move returned 490. Success-equivalent.
	KindAlreadyAtDestination Kind = "already_at_destination"

	// KindTransient: timeouts, 5xx, connection failures. Retried with
	// exponential backoff.
	KindTransient Kind = "transient"

	// KindRejected: other 4xx (insufficient materials, invalid slot).
	// Surfaced as action failure; triggers replan.
	KindRejected Kind = "rejected"

	// KindFatal: unrecoverable (authentication, repeated rejection of
	// the same action). Causes loop exit.
	KindFatal Kind = "fatal"
)

// Error is a classified game interaction failure.
type Error struct {
	Kind   Kind
	Status int // HTTP status when applicable, zero otherwise
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Msg, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Server-side status codes with dedicated taxonomy kinds.
const (
	StatusAlreadyAtDestination = 490
	StatusOnCooldown           = 499
)

// FromStatus classifies an HTTP status code from the game server.
func FromStatus(status int, op, msg string) *Error {
	e := &Error{Status: status, Op: op, Msg: msg}
	switch {
	case status == StatusAlreadyAtDestination:
		e.Kind = KindAlreadyAtDestination
	case status == StatusOnCooldown:
		e.Kind = KindCooldown
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindFatal
	case status >= 500:
		e.Kind = KindTransient
	case status >= 400:
		e.Kind = KindRejected
	default:
		e.Kind = KindTransient
	}
	return e
}

// KindOf extracts the taxonomy kind from any error. Unclassified errors
// (plain network failures, context deadlines) report KindTransient.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the executor should retry the same call.
func Retryable(err error) bool {
	return IsKind(err, KindTransient)
}
