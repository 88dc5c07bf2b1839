package apple_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/apple"
	"github.com/jrsteele09/go-auth-client/apple/applefakes"
	"github.com/jrsteele09/go-auth-client/authmodel"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLoginFirstConsent(t *testing.T) {
	dialog := &applefakes.FakeDialog{
		Credential: &apple.Credential{
			Email:   "user@icloud.com",
			Name:    "A User",
			IDToken: signedToken(t, jwt.MapClaims{"sub": "001234.abcd", "email": "user@icloud.com"}),
		},
	}
	adapter := apple.New(dialog)

	result, err := adapter.Login(context.Background(), authmodel.LoginOptions{UseSheet: true})
	require.NoError(t, err)
	require.Equal(t, "user@icloud.com", result.Email)
	require.Equal(t, "A User", result.Name)
	require.NotEmpty(t, result.IDToken)
	require.Equal(t, []bool{true}, dialog.SheetUsed)

	user := result.User()
	require.Equal(t, authmodel.ProviderApple, user.Provider)
	require.Empty(t, user.AccessToken)
	require.Empty(t, user.RefreshToken)
}

func TestLoginRepeatConsentMissingProfileIsNotAnError(t *testing.T) {
	dialog := &applefakes.FakeDialog{
		Credential: &apple.Credential{
			IDToken: signedToken(t, jwt.MapClaims{"sub": "001234.abcd", "email": "user@icloud.com"}),
		},
	}
	adapter := apple.New(dialog)

	result, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.NoError(t, err)
	require.Empty(t, result.Name)
	require.Equal(t, "user@icloud.com", result.Email, "email should fall back to the identity token claim")
}

func TestLoginRepeatConsentNoEmailClaim(t *testing.T) {
	dialog := &applefakes.FakeDialog{
		Credential: &apple.Credential{
			IDToken: signedToken(t, jwt.MapClaims{"sub": "001234.abcd"}),
		},
	}
	adapter := apple.New(dialog)

	result, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.NoError(t, err)
	require.Empty(t, result.Email)
	require.Empty(t, result.Name)
}

func TestLoginWithoutDialog(t *testing.T) {
	adapter := apple.New(nil)
	require.False(t, adapter.Available())

	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Equal(t, authmodel.ErrUnsupportedProvider, authmodel.KindOf(err))
}

func TestLoginDialogFailure(t *testing.T) {
	dialog := &applefakes.FakeDialog{Err: errors.New("user closed the dialog")}
	adapter := apple.New(dialog)

	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "user closed the dialog")
}

func TestLoginMissingIdentityToken(t *testing.T) {
	dialog := &applefakes.FakeDialog{Credential: &apple.Credential{Email: "user@icloud.com"}}
	adapter := apple.New(dialog)

	_, err := adapter.Login(context.Background(), authmodel.LoginOptions{})
	require.Equal(t, authmodel.ErrNoIDToken, authmodel.KindOf(err))
}
