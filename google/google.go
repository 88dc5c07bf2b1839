// Package google implements the Google provider adapter. It prefers a native
// credential-manager path (one-tap, account picker) supplied by the host
// platform, and falls back to a browser PKCE flow driven through
// golang.org/x/oauth2 with go-oidc endpoint discovery when no native API is
// available.
package google

import (
	"context"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/claims"
	"github.com/jrsteele09/go-auth-client/pkce"
	"github.com/jrsteele09/go-auth-client/surface"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultScopes is the basic sign-in scope set.
var DefaultScopes = []string{oidc.ScopeOpenID, "email", "profile"}

// DefaultIssuer is Google's OIDC issuer, overridable for tests.
const DefaultIssuer = "https://accounts.google.com"

// State tracks where an adapter is in its login lifecycle.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingCredential State = "awaiting-credential"
	StateResolved           State = "resolved"
	StateFailed             State = "failed"
)

// Credential is what the native platform SDK hands back for a signed-in
// Google account.
type Credential struct {
	Email          string
	Name           string
	Photo          string
	IDToken        string
	AccessToken    string
	ServerAuthCode string
	Scopes         []string
	ExpirationTime int64
}

// CredentialAPI is the native credential-manager collaborator. The vendor SDK
// owns its session handles; this adapter only consumes results.
type CredentialAPI interface {
	// Available reports whether the native path can run at all (play
	// services present, activity context attached, ...).
	Available() bool

	// OneTap runs the one-tap / credential-manager dialog.
	OneTap(ctx context.Context, loginHint string) (*Credential, error)

	// Picker runs the legacy account-picker flow with the given scopes.
	Picker(ctx context.Context, scopes []string, loginHint string) (*Credential, error)

	// SignOut clears the SDK's cached account.
	SignOut(ctx context.Context) error

	// LastSignedIn returns the cached account without UI, or nil.
	LastSignedIn(ctx context.Context) (*Credential, error)
}

// Config holds the Google registration.
type Config struct {
	// ClientID is the OAuth web client ID. Required for the browser flow.
	ClientID string

	// ClientSecret is optional; installed-app clients exchange with PKCE only.
	ClientSecret string

	// RedirectURI for the browser flow, normally the loopback surface's URI.
	RedirectURI string

	// Issuer overrides the OIDC issuer. Defaults to accounts.google.com.
	Issuer string
}

// Adapter drives Google logins.
type Adapter struct {
	config    Config
	api       CredentialAPI // nil when the platform has no native SDK
	surface   surface.Surface
	endpoint  *oauth2.Endpoint
	endpointM sync.Mutex

	stateMu sync.Mutex
	state   State
}

// New creates a Google adapter. api may be nil; surf may be nil when a native
// API is always available.
func New(config Config, api CredentialAPI, surf surface.Surface) *Adapter {
	return &Adapter{config: config, api: api, surface: surf, state: StateIdle}
}

// State returns the adapter's current lifecycle state.
func (a *Adapter) State() State {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.state
}

func (a *Adapter) setState(s State) {
	a.stateMu.Lock()
	a.state = s
	a.stateMu.Unlock()
}

// Result is the Google-shaped login outcome.
type Result struct {
	Email          string
	Name           string
	Photo          string
	IDToken        string
	AccessToken    string
	RefreshToken   string
	ServerAuthCode string
	Scopes         []string
	ExpirationTime int64
}

// User normalizes the result into the canonical record.
func (r *Result) User() *authmodel.User {
	return &authmodel.User{
		Provider:       authmodel.ProviderGoogle,
		Email:          r.Email,
		Name:           r.Name,
		Photo:          r.Photo,
		IDToken:        r.IDToken,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		ServerAuthCode: r.ServerAuthCode,
		Scopes:         r.Scopes,
		ExpirationTime: r.ExpirationTime,
	}
}

// NativeAvailable reports whether the native credential path can run.
func (a *Adapter) NativeAvailable() bool {
	return a.api != nil && a.api.Available()
}

// Login signs the user in. The one-tap path runs first when requested; any
// non-configuration failure from it falls back to the legacy picker - that
// fallback is policy, not an error path, and never surfaces to the caller
// unless the fallback itself fails.
func (a *Adapter) Login(ctx context.Context, options authmodel.LoginOptions) (*Result, error) {
	a.setState(StateAwaitingCredential)

	scopes := options.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	if options.ForceAccountPicker && a.api != nil {
		// Guarantee the picker shows every account.
		if err := a.api.SignOut(ctx); err != nil {
			log.Warn().Err(err).Msg("Google sign-out before forced picker failed")
		}
	}

	result, err := a.loginNative(ctx, scopes, options)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}
	if result == nil {
		result, err = a.loginBrowser(ctx, scopes, options.LoginHint)
		if err != nil {
			a.setState(StateFailed)
			return nil, err
		}
	}

	a.setState(StateResolved)
	return result, nil
}

// loginNative returns (nil, nil) when the flow should proceed to the browser
// path instead.
func (a *Adapter) loginNative(ctx context.Context, scopes []string, options authmodel.LoginOptions) (*Result, error) {
	if a.api == nil {
		return nil, nil
	}

	if options.UseOneTap && !options.ForceAccountPicker {
		if a.api.Available() {
			credential, err := a.api.OneTap(ctx, options.LoginHint)
			if err == nil && credential != nil {
				return credentialResult(credential, scopes), nil
			}
			if authmodel.KindOf(err) == authmodel.ErrConfiguration {
				// A missing client ID is a developer mistake, not a reason
				// to silently show the picker.
				return nil, err
			}
			log.Debug().Err(err).Msg("Google one-tap produced no credential, falling back to account picker")
		}
	}

	if !a.api.Available() {
		if a.surface == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "no Google credential API or browser surface available")
		}
		return nil, nil
	}

	credential, err := a.api.Picker(ctx, scopes, options.LoginHint)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrUnknown, err)
	}
	if credential == nil {
		return nil, authmodel.NewError(authmodel.ErrUnknown, "credential API returned no credential")
	}
	return credentialResult(credential, scopes), nil
}

func credentialResult(credential *Credential, requestedScopes []string) *Result {
	granted := credential.Scopes
	if len(granted) == 0 {
		granted = requestedScopes
	}
	return &Result{
		Email:          credential.Email,
		Name:           credential.Name,
		Photo:          credential.Photo,
		IDToken:        credential.IDToken,
		AccessToken:    credential.AccessToken,
		ServerAuthCode: credential.ServerAuthCode,
		Scopes:         granted,
		ExpirationTime: credential.ExpirationTime,
	}
}

// loginBrowser runs the PKCE authorization-code flow through the surface.
func (a *Adapter) loginBrowser(ctx context.Context, scopes []string, loginHint string) (*Result, error) {
	if a.config.ClientID == "" {
		return nil, authmodel.NewError(authmodel.ErrConfiguration, "Google client ID is not configured")
	}
	if a.surface == nil {
		return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "no browser surface wired for Google login")
	}

	oauthConfig, err := a.oauthConfig(ctx, scopes)
	if err != nil {
		return nil, err
	}

	session, err := pkce.NewSession()
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrUnknown, err)
	}
	defer session.Invalidate()

	authURLOptions := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", session.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("nonce", session.Nonce),
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if loginHint != "" {
		authURLOptions = append(authURLOptions, oauth2.SetAuthURLParam("login_hint", loginHint))
	}

	redirect, err := a.surface.Present(ctx, oauthConfig.AuthCodeURL(session.State, authURLOptions...))
	if err != nil {
		return nil, err
	}

	if !session.Consume() {
		return nil, authmodel.NewError(authmodel.ErrInvalidState, "PKCE session already consumed")
	}
	if redirect.Error != "" {
		if redirect.Error == "access_denied" {
			return nil, authmodel.NewError(authmodel.ErrCancelled, "%s: %s", redirect.Error, redirect.ErrorDescription)
		}
		return nil, authmodel.NewError(authmodel.ErrUnknown, "%s: %s", redirect.Error, redirect.ErrorDescription)
	}
	if redirect.State != session.State {
		return nil, authmodel.NewError(authmodel.ErrInvalidState, "state mismatch - possible CSRF attack")
	}
	if redirect.Code == "" {
		return nil, authmodel.NewError(authmodel.ErrUnknown, "no authorization code in response")
	}

	oauthToken, err := oauthConfig.Exchange(ctx, redirect.Code,
		oauth2.SetAuthURLParam("code_verifier", session.Verifier))
	if err != nil {
		return nil, exchangeError(err)
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, authmodel.NewError(authmodel.ErrNoIDToken, "no id_token in token response")
	}

	identity, err := claims.Decode(rawIDToken)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrParse, err)
	}
	if identity.Nonce != session.Nonce {
		return nil, authmodel.NewError(authmodel.ErrInvalidNonce, "nonce mismatch - token may be replayed")
	}

	var expirationTime int64
	if !oauthToken.Expiry.IsZero() {
		expirationTime = oauthToken.Expiry.UnixMilli()
	}

	return &Result{
		Email:          identity.Email,
		Name:           identity.Name,
		Photo:          identity.Picture,
		IDToken:        rawIDToken,
		AccessToken:    oauthToken.AccessToken,
		RefreshToken:   oauthToken.RefreshToken,
		Scopes:         scopes,
		ExpirationTime: expirationTime,
	}, nil
}

// RequestScopes implements scope escalation: succeed immediately when the
// cached account already holds everything requested, otherwise re-run the
// interactive flow with the union of granted and requested scopes.
func (a *Adapter) RequestScopes(ctx context.Context, granted, requested []string) (*Result, error) {
	merged := authmodel.MergeScopes(granted, requested)

	if a.api != nil {
		if cached, err := a.api.LastSignedIn(ctx); err == nil && cached != nil {
			if authmodel.ContainsScopes(cached.Scopes, requested) {
				return credentialResult(cached, merged), nil
			}
		}
	}

	return a.Login(ctx, authmodel.LoginOptions{Scopes: merged})
}

// Refresh exchanges the stored refresh token for a fresh access token using
// the standard oauth2 token source.
func (a *Adapter) Refresh(ctx context.Context, refreshToken string, scopes []string) (*Result, error) {
	if refreshToken == "" {
		return nil, authmodel.NewError(authmodel.ErrRefreshFailed, "no refresh token held for Google session")
	}

	oauthConfig, err := a.oauthConfig(ctx, scopes)
	if err != nil {
		return nil, err
	}

	oauthToken, err := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, refreshError(err)
	}

	result := &Result{
		AccessToken:  oauthToken.AccessToken,
		RefreshToken: oauthToken.RefreshToken,
		Scopes:       scopes,
	}
	if result.RefreshToken == "" {
		result.RefreshToken = refreshToken
	}
	if !oauthToken.Expiry.IsZero() {
		result.ExpirationTime = oauthToken.Expiry.UnixMilli()
	}
	if rawIDToken, ok := oauthToken.Extra("id_token").(string); ok && rawIDToken != "" {
		result.IDToken = rawIDToken
		if identity, err := claims.Decode(rawIDToken); err == nil {
			result.Email = identity.Email
			result.Name = identity.Name
			result.Photo = identity.Picture
		}
	}
	return result, nil
}

// SignOut clears the native SDK's cached account, if any.
func (a *Adapter) SignOut(ctx context.Context) error {
	a.setState(StateIdle)
	if a.api == nil {
		return nil
	}
	return a.api.SignOut(ctx)
}

// LastSignedIn returns the native SDK's cached account as a result, or nil.
func (a *Adapter) LastSignedIn(ctx context.Context) (*Result, error) {
	if a.api == nil {
		return nil, nil
	}
	credential, err := a.api.LastSignedIn(ctx)
	if err != nil || credential == nil {
		return nil, err
	}
	return credentialResult(credential, credential.Scopes), nil
}

// oauthConfig discovers Google's endpoints once and caches them.
func (a *Adapter) oauthConfig(ctx context.Context, scopes []string) (*oauth2.Config, error) {
	a.endpointM.Lock()
	defer a.endpointM.Unlock()

	if a.endpoint == nil {
		issuer := a.config.Issuer
		if issuer == "" {
			issuer = DefaultIssuer
		}
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, authmodel.WrapError(authmodel.ErrNetwork,
				errors.Wrap(err, "[google.oauthConfig] OIDC discovery"))
		}
		endpoint := provider.Endpoint()
		a.endpoint = &endpoint
	}

	return &oauth2.Config{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		Endpoint:     *a.endpoint,
		RedirectURL:  a.config.RedirectURI,
		Scopes:       scopes,
	}, nil
}

func exchangeError(err error) *authmodel.Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return authmodel.NewError(authmodel.ErrUnknown, "%s: %s", retrieveErr.ErrorCode, retrieveErr.ErrorDescription)
	}
	return authmodel.WrapError(authmodel.ErrNetwork, err)
}

func refreshError(err error) *authmodel.Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return authmodel.NewError(authmodel.ErrRefreshFailed, "%s: %s", retrieveErr.ErrorCode, retrieveErr.ErrorDescription)
	}
	return authmodel.WrapError(authmodel.ErrNetwork, err)
}
