// Package surface abstracts the user-interactive step of a browser login: a
// popup window, system browser tab, or web authentication session that shows
// the provider's consent screen and delivers the redirect back to us.
package surface

import "context"

// Redirect carries the parameters the provider appended to the redirect URI.
type Redirect struct {
	// Code is the authorization code. Absent when the provider returned an error.
	Code string

	// State is the anti-CSRF token echoed back by the provider. Callers must
	// compare it against the value generated for the attempt before touching
	// the code.
	State string

	// Error and ErrorDescription are set when the provider rejected the
	// authorize request (user denied consent, bad request, ...).
	Error            string
	ErrorDescription string
}

// Surface presents an authorize URL and waits for the provider redirect.
//
// Present blocks until one of: the redirect arrives, the user closes the
// surface (cancelled, detected within one polling interval), the hard timeout
// ceiling fires (timeout, the surface is closed exactly once), or ctx is
// cancelled (cancelled). Implementations must be safe to call sequentially;
// one Surface drives at most one interaction at a time.
type Surface interface {
	Present(ctx context.Context, authURL string) (*Redirect, error)
}
