package microsoft_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/microsoft"
	"github.com/jrsteele09/go-auth-client/pkce"
	"github.com/jrsteele09/go-auth-client/surface"
	"github.com/jrsteele09/go-auth-client/surface/surfacefakes"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/stretchr/testify/require"
)

func TestAuthBaseURL(t *testing.T) {
	require.Equal(t, "https://login.microsoftonline.com/common/",
		microsoft.AuthBaseURL("common", ""))
	require.Equal(t, "https://login.microsoftonline.com/contoso.onmicrosoft.com/",
		microsoft.AuthBaseURL("contoso.onmicrosoft.com", ""))
	require.Equal(t, "https://contosob2c.b2clogin.com/tfp/contoso.onmicrosoft.com/",
		microsoft.AuthBaseURL("contoso.onmicrosoft.com", "contosob2c.b2clogin.com"))
	// A tenant that is itself a URL is used verbatim, trailing slash normalized.
	require.Equal(t, "https://login.contoso.com/adfs/",
		microsoft.AuthBaseURL("https://login.contoso.com/adfs", ""))
	require.Equal(t, "https://login.contoso.com/adfs/",
		microsoft.AuthBaseURL("https://login.contoso.com/adfs/", ""))
}

func signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

func TestLoginFullRoundTrip(t *testing.T) {
	var sessionNonce, sessionChallenge string
	tokenCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		require.Equal(t, "abc", r.PostFormValue("code"))
		require.Equal(t, "client-1", r.PostFormValue("client_id"))
		require.Equal(t, "http://127.0.0.1:48100/callback", r.PostFormValue("redirect_uri"))

		// The exchange carries the original unhashed verifier, bound to the
		// challenge the authorize URL advertised.
		verifier := r.PostFormValue("code_verifier")
		require.NotEmpty(t, verifier)
		require.Equal(t, sessionChallenge, pkce.Challenge(verifier))

		idToken := signIDToken(t, jwt.MapClaims{
			"nonce":              sessionNonce,
			"preferred_username": "a@b.com",
			"name":               "A B",
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_token":"` + idToken + `","access_token":"tok","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer server.Close()

	surf := surfacefakes.NewFakeSurface()
	surf.PresentFn = func(_ context.Context, authURL string) (*surface.Redirect, error) {
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		query := parsed.Query()

		require.Equal(t, "client-1", query.Get("client_id"))
		require.Equal(t, "http://127.0.0.1:48100/callback", query.Get("redirect_uri"))
		require.Equal(t, "code", query.Get("response_type"))
		require.Equal(t, "query", query.Get("response_mode"))
		require.Equal(t, "openid email profile offline_access User.Read", query.Get("scope"))
		require.Equal(t, "S256", query.Get("code_challenge_method"))
		require.Equal(t, "select_account", query.Get("prompt"))
		require.NotEmpty(t, query.Get("state"))
		require.NotEmpty(t, query.Get("nonce"))

		sessionNonce = query.Get("nonce")
		sessionChallenge = query.Get("code_challenge")
		return &surface.Redirect{Code: "abc", State: query.Get("state")}, nil
	}

	// A tenant that is a URL routes the exchange at the test server.
	adapter := microsoft.New(microsoft.Config{
		ClientID:    "client-1",
		Tenant:      server.URL,
		RedirectURI: "http://127.0.0.1:48100/callback",
	}, surf, token.NewExchanger(token.WithNowTime(func() time.Time {
		return time.UnixMilli(1_000_000)
	})))

	result, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls)

	user := result.User()
	require.Equal(t, authmodel.ProviderMicrosoft, user.Provider)
	require.Equal(t, "a@b.com", user.Email)
	require.Equal(t, "A B", user.Name)
	require.Equal(t, "tok", user.AccessToken)
	require.Equal(t, "rt-1", user.RefreshToken)
	require.Equal(t, int64(1_000_000+3_600_000), user.ExpirationTime)
	require.Equal(t, []string{"openid", "email", "profile", "offline_access", "User.Read"}, user.Scopes)
}

func TestLoginForgedStateRejectedBeforeTokenCall(t *testing.T) {
	tokenCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
	}))
	defer server.Close()

	surf := surfacefakes.NewFakeSurface()
	surf.Redirect = &surface.Redirect{Code: "abc", State: "forged-state"}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1", Tenant: server.URL}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrInvalidState, authmodel.KindOf(err))
	require.Zero(t, tokenCalls, "token endpoint must not be called on state mismatch")
}

func TestLoginNonceMismatchIsInvalidNonce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idToken := signIDToken(t, jwt.MapClaims{"nonce": "stale-nonce", "preferred_username": "a@b.com"})
		_, _ = w.Write([]byte(`{"id_token":"` + idToken + `","access_token":"tok","expires_in":3600}`))
	}))
	defer server.Close()

	surf := surfacefakes.NewFakeSurface()
	surf.PresentFn = func(_ context.Context, authURL string) (*surface.Redirect, error) {
		parsed, _ := url.Parse(authURL)
		return &surface.Redirect{Code: "abc", State: parsed.Query().Get("state")}, nil
	}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1", Tenant: server.URL}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrInvalidNonce, authmodel.KindOf(err))
}

func TestLoginMissingIDTokenIsNoIDToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer server.Close()

	surf := surfacefakes.NewFakeSurface()
	surf.PresentFn = func(_ context.Context, authURL string) (*surface.Redirect, error) {
		parsed, _ := url.Parse(authURL)
		return &surface.Redirect{Code: "abc", State: parsed.Query().Get("state")}, nil
	}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1", Tenant: server.URL}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrNoIDToken, authmodel.KindOf(err))
}

func TestLoginRedirectErrorPassedThrough(t *testing.T) {
	surf := surfacefakes.NewFakeSurface()
	surf.Redirect = &surface.Redirect{Error: "server_error", ErrorDescription: "AADSTS90002: Tenant not found."}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrUnknown, authmodel.KindOf(err))
	require.Contains(t, err.Error(), "server_error")
	require.Contains(t, err.Error(), "AADSTS90002")
}

func TestLoginAccessDeniedIsCancelled(t *testing.T) {
	surf := surfacefakes.NewFakeSurface()
	surf.Redirect = &surface.Redirect{Error: "access_denied", ErrorDescription: "user backed out"}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrCancelled, authmodel.KindOf(err))
}

func TestLoginMissingCodeIsUnknown(t *testing.T) {
	surf := surfacefakes.NewFakeSurface()
	surf.PresentFn = func(_ context.Context, authURL string) (*surface.Redirect, error) {
		parsed, _ := url.Parse(authURL)
		return &surface.Redirect{State: parsed.Query().Get("state")}, nil
	}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrUnknown, authmodel.KindOf(err))
}

func TestLoginMissingClientIDIsConfigurationError(t *testing.T) {
	adapter := microsoft.New(microsoft.Config{}, surfacefakes.NewFakeSurface(), token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrConfiguration, authmodel.KindOf(err))
}

func TestLoginSurfaceCancellationPropagates(t *testing.T) {
	surf := surfacefakes.NewFakeSurface()
	surf.Err = authmodel.NewError(authmodel.ErrCancelled, "popup closed")

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"}, surf, token.NewExchanger())
	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Equal(t, authmodel.ErrCancelled, authmodel.KindOf(err))
}

func TestLoginHintAndPromptForwarded(t *testing.T) {
	surf := surfacefakes.NewFakeSurface()
	surf.PresentFn = func(_ context.Context, authURL string) (*surface.Redirect, error) {
		parsed, _ := url.Parse(authURL)
		require.Equal(t, "a@b.com", parsed.Query().Get("login_hint"))
		require.Equal(t, "consent", parsed.Query().Get("prompt"))
		return nil, authmodel.NewError(authmodel.ErrCancelled, "stop here")
	}

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"}, surf, token.NewExchanger())
	_, _ = adapter.Login(context.Background(), authmodel.LoginOptions{
		LoginHint: "a@b.com",
		Prompt:    "consent",
	})
	require.Equal(t, 1, surf.PresentCount())
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostFormValue("grant_type"))
		require.Equal(t, "rt-old", r.PostFormValue("refresh_token"))
		require.Equal(t, "openid email", r.PostFormValue("scope"))
		idToken := signIDToken(t, jwt.MapClaims{"preferred_username": "a@b.com", "name": "A B"})
		_, _ = w.Write([]byte(`{"id_token":"` + idToken + `","access_token":"tok-2","refresh_token":"rt-new","expires_in":3600}`))
	}))
	defer server.Close()

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1", Tenant: server.URL},
		surfacefakes.NewFakeSurface(), token.NewExchanger())

	result, err := adapter.Refresh(context.Background(), "rt-old", []string{"openid", "email"})
	require.NoError(t, err)
	require.Equal(t, "tok-2", result.AccessToken)
	require.Equal(t, "rt-new", result.RefreshToken)
	require.Equal(t, "a@b.com", result.Email)
	require.Positive(t, result.ExpirationTime)
}

func TestRefreshRejectionIsRefreshFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token revoked"}`))
	}))
	defer server.Close()

	adapter := microsoft.New(microsoft.Config{ClientID: "client-1", Tenant: server.URL},
		surfacefakes.NewFakeSurface(), token.NewExchanger())

	_, err := adapter.Refresh(context.Background(), "rt-old", nil)
	require.Error(t, err)
	require.Equal(t, authmodel.ErrRefreshFailed, authmodel.KindOf(err))
	require.Contains(t, err.Error(), "refresh token revoked")
}

func TestRefreshWithoutTokenFails(t *testing.T) {
	adapter := microsoft.New(microsoft.Config{ClientID: "client-1"},
		surfacefakes.NewFakeSurface(), token.NewExchanger())
	_, err := adapter.Refresh(context.Background(), "", nil)
	require.Error(t, err)
	require.Equal(t, authmodel.ErrRefreshFailed, authmodel.KindOf(err))
}
