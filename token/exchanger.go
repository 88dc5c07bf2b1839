// Package token implements the HTTP exchanges against an OIDC token endpoint:
// authorization-code-for-tokens and refresh-token-for-tokens.
package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/oauth2"
)

const defaultRequestTimeout = 30 * time.Second

// CodeExchangeRequest holds the parameters for an authorization_code grant.
type CodeExchangeRequest struct {
	// ClientID identifies the application performing the exchange.
	ClientID string

	// Code is the authorization code returned on the redirect. Single use.
	Code string

	// RedirectURI must exactly match the one sent on the authorize request.
	RedirectURI string

	// CodeVerifier is the original unhashed PKCE verifier whose S256 hash was
	// sent as the code_challenge.
	CodeVerifier string
}

// RefreshRequest holds the parameters for a refresh_token grant.
type RefreshRequest struct {
	ClientID     string
	RefreshToken string

	// Scope is optional; Microsoft accepts a space-joined scope list to keep
	// the refreshed access token aligned with the granted set.
	Scope string
}

// Exchanger performs token endpoint exchanges. The zero Client field means a
// default 30s-timeout client is used; tests inject an httptest client.
type Exchanger struct {
	client  *http.Client
	nowTime func() time.Time
}

// ExchangerOption modifies an Exchanger.
type ExchangerOption func(*Exchanger)

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		e.client = c
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ExchangerOption {
	return func(e *Exchanger) {
		e.nowTime = nowFunc
	}
}

// NewExchanger creates a token endpoint client.
func NewExchanger(options ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		client:  &http.Client{Timeout: defaultRequestTimeout},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// ExchangeCode swaps an authorization code for tokens at tokenURL.
// On a non-success status the provider's error and error_description fields
// are surfaced verbatim in the returned error's Underlying message.
func (e *Exchanger) ExchangeCode(ctx context.Context, tokenURL string, req CodeExchangeRequest) (*oauth2.TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", req.ClientID)
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURI)
	form.Set("grant_type", string(oauth2.AuthorizationCodeGrant))
	form.Set("code_verifier", req.CodeVerifier)

	return e.post(ctx, tokenURL, form, authmodel.ErrUnknown)
}

// Refresh swaps a refresh token for fresh tokens at tokenURL. A rejection by
// the endpoint is classified refresh_failed.
func (e *Exchanger) Refresh(ctx context.Context, tokenURL string, req RefreshRequest) (*oauth2.TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", req.ClientID)
	form.Set("refresh_token", req.RefreshToken)
	form.Set("grant_type", string(oauth2.RefreshTokenCodeGrant))
	if req.Scope != "" {
		form.Set("scope", req.Scope)
	}

	return e.post(ctx, tokenURL, form, authmodel.ErrRefreshFailed)
}

// ExpirationTime converts an expires_in seconds value into the absolute
// epoch-millisecond instant the token expires. Zero expires_in yields zero.
func (e *Exchanger) ExpirationTime(expiresIn int) int64 {
	if expiresIn <= 0 {
		return 0
	}
	return e.nowTime().UnixMilli() + int64(expiresIn)*1000
}

func (e *Exchanger) post(ctx context.Context, tokenURL string, form url.Values, rejectionKind authmodel.ErrorKind) (*oauth2.TokenResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrUnknown, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejectionError(rejectionKind, resp.StatusCode, body)
	}

	var tokenResp oauth2.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, authmodel.WrapError(authmodel.ErrParse, err)
	}
	return &tokenResp, nil
}

// rejectionError surfaces the provider's error fields verbatim so callers
// can log the exact rejection without this library re-wording it.
func rejectionError(kind authmodel.ErrorKind, status int, body []byte) *authmodel.Error {
	var errResp oauth2.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return authmodel.NewError(kind, "token endpoint returned status %d: %s", status, strings.TrimSpace(string(body)))
	}
	if errResp.ErrorDescription == "" {
		return authmodel.NewError(kind, "%s", errResp.Error)
	}
	return authmodel.NewError(kind, "%s: %s", errResp.Error, errResp.ErrorDescription)
}
