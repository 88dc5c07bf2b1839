// Package apple implements the Apple provider adapter: a single-shot native
// Sign in with Apple dialog. Apple issues no access or refresh token to
// native clients in this flow, so the result carries only the identity token
// and whatever profile fields the first consent returned.
package apple

import (
	"context"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/claims"
)

// Credential is what the native Apple ID dialog returns. Email and Name are
// only populated on the user's first consent; repeat logins legitimately
// return neither.
type Credential struct {
	Email   string
	Name    string
	IDToken string
}

// Dialog is the native ASAuthorization collaborator. The vendor SDK owns its
// presentation; this adapter only consumes the credential.
type Dialog interface {
	SignIn(ctx context.Context, useSheet bool) (*Credential, error)
}

// Adapter drives Apple logins. Stateless between calls.
type Adapter struct {
	dialog Dialog
}

// New creates an Apple adapter. A nil dialog means the platform has no Apple
// sign-in support and every login fails with unsupported_provider.
func New(dialog Dialog) *Adapter {
	return &Adapter{dialog: dialog}
}

// Result is the Apple-shaped login outcome.
type Result struct {
	Email   string
	Name    string
	IDToken string
}

// User normalizes the result into the canonical record.
func (r *Result) User() *authmodel.User {
	return &authmodel.User{
		Provider: authmodel.ProviderApple,
		Email:    r.Email,
		Name:     r.Name,
		IDToken:  r.IDToken,
	}
}

// Available reports whether the native dialog is wired.
func (a *Adapter) Available() bool {
	return a.dialog != nil
}

// Login presents the native dialog once. Missing email/name is not an error:
// Apple only sends them on first consent, and the identity token usually
// still carries the email claim, which is filled in as a fallback.
func (a *Adapter) Login(ctx context.Context, options authmodel.LoginOptions) (*Result, error) {
	if a.dialog == nil {
		return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Apple sign-in is not available on this platform")
	}

	credential, err := a.dialog.SignIn(ctx, options.UseSheet)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrUnknown, err)
	}
	if credential == nil || credential.IDToken == "" {
		return nil, authmodel.NewError(authmodel.ErrNoIDToken, "Apple dialog returned no identity token")
	}

	result := &Result{
		Email:   credential.Email,
		Name:    credential.Name,
		IDToken: credential.IDToken,
	}
	if result.Email == "" {
		if identity, err := claims.Decode(credential.IDToken); err == nil {
			result.Email = identity.Email
		}
	}
	return result, nil
}
