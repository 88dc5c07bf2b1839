package authmodel_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestProviderValid(t *testing.T) {
	require.True(t, authmodel.ProviderGoogle.Valid())
	require.True(t, authmodel.ProviderApple.Valid())
	require.True(t, authmodel.ProviderMicrosoft.Valid())
	require.False(t, authmodel.Provider("github").Valid())
	require.False(t, authmodel.Provider("").Valid())
}

func TestMergeScopesDeduplicates(t *testing.T) {
	merged := authmodel.MergeScopes(
		[]string{"openid", "email"},
		[]string{"email", "calendar.read", "openid"},
	)
	require.Equal(t, []string{"openid", "email", "calendar.read"}, merged)
}

func TestMergeScopesSkipsEmpty(t *testing.T) {
	require.Equal(t, []string{"openid"}, authmodel.MergeScopes(nil, []string{"", "openid"}))
}

func TestRemoveScopes(t *testing.T) {
	remaining := authmodel.RemoveScopes([]string{"openid", "email", "calendar.read"}, []string{"calendar.read"})
	require.Equal(t, []string{"openid", "email"}, remaining)

	// Empty revoke set changes nothing.
	require.Equal(t, []string{"openid"}, authmodel.RemoveScopes([]string{"openid"}, nil))
}

func TestContainsScopes(t *testing.T) {
	require.True(t, authmodel.ContainsScopes([]string{"a", "b"}, []string{"a"}))
	require.True(t, authmodel.ContainsScopes([]string{"a"}, nil))
	require.False(t, authmodel.ContainsScopes([]string{"a"}, []string{"b"}))
}

func TestKindOfBranchesWithoutStringMatching(t *testing.T) {
	err := authmodel.NewError(authmodel.ErrInvalidState, "state mismatch - possible CSRF")
	require.Equal(t, authmodel.ErrInvalidState, authmodel.KindOf(err))

	wrapped := errors.Wrap(err, "login")
	require.Equal(t, authmodel.ErrInvalidState, authmodel.KindOf(wrapped))

	require.Equal(t, authmodel.ErrUnknown, authmodel.KindOf(errors.New("plain failure")))
}

func TestWrapErrorPreservesClassification(t *testing.T) {
	original := authmodel.NewError(authmodel.ErrCancelled, "popup closed")
	rewrapped := authmodel.WrapError(authmodel.ErrUnknown, original)
	require.Equal(t, authmodel.ErrCancelled, rewrapped.Kind)

	foreign := authmodel.WrapError(authmodel.ErrNetwork, errors.New("dial tcp: refused"))
	require.Equal(t, authmodel.ErrNetwork, foreign.Kind)
	require.Equal(t, "dial tcp: refused", foreign.Underlying)

	require.Nil(t, authmodel.WrapError(authmodel.ErrNetwork, nil))
}

func TestErrorMessageIncludesUnderlying(t *testing.T) {
	require.Equal(t, "cancelled", (&authmodel.Error{Kind: authmodel.ErrCancelled}).Error())
	require.Equal(t, "timeout: ceiling exceeded",
		(&authmodel.Error{Kind: authmodel.ErrTimeout, Underlying: "ceiling exceeded"}).Error())
}

func TestUserTokens(t *testing.T) {
	user := &authmodel.User{
		Provider:       authmodel.ProviderMicrosoft,
		AccessToken:    "tok",
		IDToken:        "id",
		RefreshToken:   "rt",
		ExpirationTime: 1234,
	}
	require.Equal(t, authmodel.Tokens{
		AccessToken:    "tok",
		IDToken:        "id",
		RefreshToken:   "rt",
		ExpirationTime: 1234,
	}, user.Tokens())
}
