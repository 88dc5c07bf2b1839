// Package microsoft implements the Microsoft (Azure AD / B2C) provider
// adapter: always a PKCE authorization-code flow through an interactive
// browser surface, followed by an exchange at the v2.0 token endpoint.
// It is the protocol-heavy path the other providers' browser flows mirror.
package microsoft

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/claims"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/pkce"
	"github.com/jrsteele09/go-auth-client/surface"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/rs/zerolog/log"
)

// DefaultScopes is the sign-in scope set used when a login requests none.
// offline_access yields a refresh token; User.Read covers basic Graph profile.
var DefaultScopes = []string{"openid", "email", "profile", "offline_access", "User.Read"}

const defaultTenant = "common"

// Config holds the registration the adapter needs.
type Config struct {
	// ClientID is the Azure application (client) ID. Required.
	ClientID string

	// Tenant is the platform-default tenant, overridable per login.
	// "common", "organizations", "consumers", a tenant ID/domain, or a full
	// authority URL used verbatim.
	Tenant string

	// B2CDomain, when set, switches the authority to
	// https://{B2CDomain}/tfp/{tenant}/.
	B2CDomain string

	// RedirectURI is the redirect registered with Azure, normally the
	// loopback surface's URI.
	RedirectURI string
}

// Adapter drives Microsoft logins. Stateless between calls: every attempt
// mints and owns its own pkce.Session.
type Adapter struct {
	config    Config
	surface   surface.Surface
	exchanger *token.Exchanger
}

// New creates a Microsoft adapter.
func New(config Config, surf surface.Surface, exchanger *token.Exchanger) *Adapter {
	return &Adapter{config: config, surface: surf, exchanger: exchanger}
}

// Result is the Microsoft-shaped login outcome, normalized to the canonical
// user record at the adapter boundary via User().
type Result struct {
	Email          string
	Name           string
	IDToken        string
	AccessToken    string
	RefreshToken   string
	ExpirationTime int64
	GrantedScopes  []string
}

// User normalizes the result into the canonical record.
func (r *Result) User() *authmodel.User {
	return &authmodel.User{
		Provider:       authmodel.ProviderMicrosoft,
		Email:          r.Email,
		Name:           r.Name,
		IDToken:        r.IDToken,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		Scopes:         r.GrantedScopes,
		ExpirationTime: r.ExpirationTime,
	}
}

// AuthBaseURL resolves the authority base URL, trailing slash normalized:
// a tenant that is itself a URL is used verbatim; a configured B2C domain
// yields the tfp authority; otherwise login.microsoftonline.com.
func AuthBaseURL(tenant, b2cDomain string) string {
	if strings.Contains(tenant, "://") {
		return strings.TrimRight(tenant, "/") + "/"
	}
	if b2cDomain != "" {
		return "https://" + b2cDomain + "/tfp/" + tenant + "/"
	}
	return "https://login.microsoftonline.com/" + tenant + "/"
}

// Login performs the full PKCE flow: mint a session, present the authorize
// URL, validate the redirect's state, exchange the code with the verifier,
// and validate the ID token's nonce before trusting any field of the
// response. Any failure invalidates the attempt's PKCE session so its state
// and nonce can never be accepted later.
func (a *Adapter) Login(ctx context.Context, options authmodel.LoginOptions) (*Result, error) {
	if a.config.ClientID == "" {
		return nil, authmodel.NewError(authmodel.ErrConfiguration, "Microsoft client ID is not configured")
	}

	tenant := a.config.Tenant
	if options.Tenant != "" {
		tenant = options.Tenant
	}
	if tenant == "" {
		tenant = defaultTenant
	}
	authBase := AuthBaseURL(tenant, a.config.B2CDomain)

	session, err := pkce.NewSession()
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrUnknown, err)
	}
	defer session.Invalidate()

	scopes := options.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL := a.authorizeURL(authBase, session, scopes, options)
	log.Debug().Str("tenant", tenant).Msg("Presenting Microsoft authorize URL")

	redirect, err := a.surface.Present(ctx, authURL)
	if err != nil {
		return nil, err
	}

	if !session.Consume() {
		return nil, authmodel.NewError(authmodel.ErrInvalidState, "PKCE session already consumed")
	}

	if redirect.Error != "" {
		return nil, redirectError(redirect)
	}
	if redirect.State != session.State {
		return nil, authmodel.NewError(authmodel.ErrInvalidState, "state mismatch - possible CSRF attack")
	}
	if redirect.Code == "" {
		return nil, authmodel.NewError(authmodel.ErrUnknown, "no authorization code in response")
	}

	tokenResp, err := a.exchanger.ExchangeCode(ctx, authBase+"oauth2/v2.0/token", token.CodeExchangeRequest{
		ClientID:     a.config.ClientID,
		Code:         redirect.Code,
		RedirectURI:  a.config.RedirectURI,
		CodeVerifier: session.Verifier,
	})
	if err != nil {
		return nil, err
	}

	if tokenResp.IDToken == "" {
		return nil, authmodel.NewError(authmodel.ErrNoIDToken, "no id_token in token response")
	}

	identity, err := claims.Decode(tokenResp.IDToken)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrParse, err)
	}

	// Replay check before any other field of the response is used.
	if identity.Nonce != session.Nonce {
		return nil, authmodel.NewError(authmodel.ErrInvalidNonce, "nonce mismatch - token may be replayed")
	}

	return &Result{
		Email:          identity.DisplayEmail(),
		Name:           identity.Name,
		IDToken:        tokenResp.IDToken,
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		ExpirationTime: a.exchanger.ExpirationTime(tokenResp.ExpiresIn),
		// The granted list is exactly what was requested: providers may
		// silently narrow server-side, and the request is authoritative
		// for UI purposes.
		GrantedScopes: scopes,
	}, nil
}

// Refresh exchanges a stored refresh token for fresh tokens. No nonce check
// here: no fresh nonce was issued for the refresh grant.
func (a *Adapter) Refresh(ctx context.Context, refreshToken string, scopes []string) (*Result, error) {
	if a.config.ClientID == "" {
		return nil, authmodel.NewError(authmodel.ErrConfiguration, "Microsoft client ID is not configured")
	}
	if refreshToken == "" {
		return nil, authmodel.NewError(authmodel.ErrRefreshFailed, "no refresh token held for Microsoft session")
	}

	tenant := a.config.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	authBase := AuthBaseURL(tenant, a.config.B2CDomain)

	tokenResp, err := a.exchanger.Refresh(ctx, authBase+"oauth2/v2.0/token", token.RefreshRequest{
		ClientID:     a.config.ClientID,
		RefreshToken: refreshToken,
		Scope:        strings.Join(scopes, " "),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		IDToken:        tokenResp.IDToken,
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		ExpirationTime: a.exchanger.ExpirationTime(tokenResp.ExpiresIn),
		GrantedScopes:  scopes,
	}

	if tokenResp.IDToken != "" {
		if identity, err := claims.Decode(tokenResp.IDToken); err == nil {
			result.Email = identity.DisplayEmail()
			result.Name = identity.Name
		}
	}
	return result, nil
}

func (a *Adapter) authorizeURL(authBase string, session *pkce.Session, scopes []string, options authmodel.LoginOptions) string {
	prompt := options.Prompt
	if prompt == "" {
		prompt = string(oauth2.PromptSelectAccount)
	}

	params := url.Values{}
	params.Set("client_id", a.config.ClientID)
	params.Set("redirect_uri", a.config.RedirectURI)
	params.Set("response_type", string(oauth2.CodeResponseType))
	params.Set("response_mode", string(oauth2.QueryResponseMode))
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("state", session.State)
	params.Set("nonce", session.Nonce)
	params.Set("code_challenge", session.Challenge)
	params.Set("code_challenge_method", string(oauth2.CodeMethodTypeS256))
	params.Set("prompt", prompt)
	if options.LoginHint != "" {
		params.Set("login_hint", options.LoginHint)
	}

	return authBase + "oauth2/v2.0/authorize?" + params.Encode()
}

// redirectError maps a provider rejection on the redirect. access_denied is
// the code Azure sends when the user backs out of the consent screen.
func redirectError(redirect *surface.Redirect) *authmodel.Error {
	kind := authmodel.ErrUnknown
	if redirect.Error == "access_denied" {
		kind = authmodel.ErrCancelled
	}
	if redirect.ErrorDescription == "" {
		return authmodel.NewError(kind, "%s", redirect.Error)
	}
	return authmodel.NewError(kind, "%s: %s", redirect.Error, redirect.ErrorDescription)
}
