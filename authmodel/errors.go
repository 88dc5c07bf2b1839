package authmodel

import (
	"errors"
	"fmt"
)

// ErrorKind is the normalized failure classification callers branch on.
// Matching on vendor message strings is never required.
type ErrorKind string

const (
	// ErrCancelled - the user aborted the interactive flow (closed the
	// popup/browser tab, dismissed the native dialog).
	ErrCancelled ErrorKind = "cancelled"

	// ErrNetwork - transport failure talking to a provider endpoint.
	ErrNetwork ErrorKind = "network_error"

	// ErrConfiguration - missing client ID, tenant, or redirect configuration.
	ErrConfiguration ErrorKind = "configuration_error"

	// ErrUnsupportedProvider - the provider/platform combination is invalid,
	// or the provider has no mechanism for the requested operation
	// (e.g. Apple token refresh).
	ErrUnsupportedProvider ErrorKind = "unsupported_provider"

	// ErrUnsupportedOperation - the operation is not available for the
	// current provider (e.g. incremental scopes on Apple).
	ErrUnsupportedOperation ErrorKind = "unsupported_operation"

	// ErrNoUser - the operation requires an authenticated user and none is present.
	ErrNoUser ErrorKind = "no_user"

	// ErrInvalidState - the state parameter echoed by the provider does not
	// match the one generated for this attempt. Possible CSRF; always fatal.
	ErrInvalidState ErrorKind = "invalid_state"

	// ErrInvalidNonce - the nonce claim in the returned ID token does not
	// match the one generated for this attempt. Possible replay; always fatal.
	ErrInvalidNonce ErrorKind = "invalid_nonce"

	// ErrNoIDToken - the token response is missing the required id_token field.
	ErrNoIDToken ErrorKind = "no_id_token"

	// ErrParse - malformed provider response.
	ErrParse ErrorKind = "parse_error"

	// ErrRefreshFailed - the refresh endpoint rejected the refresh token.
	ErrRefreshFailed ErrorKind = "refresh_failed"

	// ErrTimeout - the interactive flow exceeded the hard ceiling.
	ErrTimeout ErrorKind = "timeout"

	// ErrUnknown - unclassified failure.
	ErrUnknown ErrorKind = "unknown"
)

// Error is the failure type every operation in this library returns. Kind is
// the branchable classification; Underlying preserves the raw provider or
// transport message for diagnostics.
type Error struct {
	Kind       ErrorKind
	Underlying string
}

func (e *Error) Error() string {
	if e.Underlying == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Underlying)
}

// NewError builds an Error with a formatted underlying message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Underlying: fmt.Sprintf(format, args...)}
}

// WrapError classifies an arbitrary error, preserving its message. A nil err
// returns nil; an err that is already an *Error is returned unchanged so the
// original classification survives wrapping layers.
func WrapError(kind ErrorKind, err error) *Error {
	if err == nil {
		return nil
	}
	var authErr *Error
	if ok := asError(err, &authErr); ok {
		return authErr
	}
	return &Error{Kind: kind, Underlying: err.Error()}
}

// KindOf extracts the ErrorKind from err, or ErrUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var authErr *Error
	if asError(err, &authErr) {
		return authErr.Kind
	}
	return ErrUnknown
}

func asError(err error, target **Error) bool {
	return errors.As(err, target)
}
