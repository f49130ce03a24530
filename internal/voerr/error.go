// Package voerr defines the flat, closed error taxonomy shared by every
// layer of the gateway. Errors are a kind, not a wrapped exception chain:
// each layer returns either a success or one of these kinds, optionally
// wrapping an underlying I/O error for logging.
package voerr

import "fmt"

// Kind is one member of the closed error enumeration.
type Kind string

// The closed set of error kinds. Names mirror the original Rust enum
// (spec.md §7) so the wire-level "error" header stays stable.
const (
	ApiParseId            Kind = "ApiParseId"
	ApiParseNum           Kind = "ApiParseNum"
	ApiParseHash          Kind = "ApiParseHash"
	ApiMissingEntry       Kind = "ApiMissingEntry"
	ApiUnknownQueryType   Kind = "ApiUnknownQueryType"
	ApiMissingQueryType   Kind = "ApiMissingQueryType"

	AuthInvalidAccessToken  Kind = "AuthInvalidAccessToken"
	AuthInvalidRefreshToken Kind = "AuthInvalidRefreshToken"
	AuthNotAuthenticated    Kind = "AuthNotAuthenticated"
	AuthInvalidPhone        Kind = "AuthInvalidPhone"
	AuthInvalidUid          Kind = "AuthInvalidUid"
	AuthTokensMismatch      Kind = "AuthTokensMismatch"

	CostInsufficientCredit Kind = "CostInsufficientCredit"
	CostTime               Kind = "CostTime"
	CostSpace              Kind = "CostSpace"
	CostSpaceTooLarge      Kind = "CostSpaceTooLarge"
	CostTraffic            Kind = "CostTraffic"
	CostTip                Kind = "CostTip"
	CostCheckInTooEarly    Kind = "CostCheckInTooEarly"

	GeneInvalidId     Kind = "GeneInvalidId"
	GeneMapNotFound   Kind = "GeneMapNotFound"
	GeneMapExpired    Kind = "GeneMapExpired"
	GeneUnimplemented Kind = "GeneUnimplemented"

	MemeNotFound Kind = "MemeNotFound"
	MemePut      Kind = "MemePut"
	MemeGet      Kind = "MemeGet"

	Namespace   Kind = "Namespace"
	ReservedKey Kind = "ReservedKey"
	GeoDim      Kind = "GeoDim"
	NumCheck    Kind = "NumCheck"
	Logical     Kind = "Logical"

	IO Kind = "IO"
)

// Error wraps a Kind as a standard Go error, optionally carrying an
// underlying cause for logging (never rendered to the client).
type Error struct {
	Kind  Kind
	Cause error
}

// New builds an Error of the given kind with no underlying cause.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap builds an Error of the given kind around an underlying I/O error.
// Used for store errors that surface as the IO kind per spec §7.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// WrapIO is a convenience for the common "unexpected store failure" case.
func WrapIO(cause error) *Error {
	return &Error{Kind: IO, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	ve, ok := err.(*Error)
	return ok && ve.Kind == kind
}

// KindOf extracts the Kind of err, defaulting to Logical for anything that
// isn't already a *Error (e.g. a context deadline or a raw driver error
// that escaped a layer's own translation).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if ve, ok := err.(*Error); ok {
		return ve.Kind
	}
	return Logical
}
