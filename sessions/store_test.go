package sessions_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/storage/storagefakes"
	"github.com/stretchr/testify/require"
)

func testSession() *sessions.Session {
	return &sessions.Session{
		User: &authmodel.User{
			Provider:       authmodel.ProviderMicrosoft,
			Email:          "a@b.com",
			Name:           "A B",
			IDToken:        "idt",
			AccessToken:    "tok",
			Scopes:         []string{"openid", "email"},
			ExpirationTime: 1234,
		},
		Scopes:       []string{"openid", "email"},
		RefreshToken: "rt-1",
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, authmodel.ProviderMicrosoft, loaded.User.Provider)
	require.Equal(t, "a@b.com", loaded.User.Email)
	require.Equal(t, "tok", loaded.User.AccessToken)
	require.Equal(t, []string{"openid", "email"}, loaded.Scopes)
}

func TestRefreshTokenInMemoryOnlyByDefault(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))

	_, ok := adapter.Get(sessions.RefreshTokenKey)
	require.False(t, ok, "refresh token must not be persisted by default")

	// Nor embedded inside the persisted user record.
	userJSON, ok := adapter.Get(sessions.UserKey)
	require.True(t, ok)
	var user authmodel.User
	require.NoError(t, json.Unmarshal([]byte(userJSON), &user))
	require.Empty(t, user.RefreshToken)
}

func TestRefreshTokenPersistedWhenAllowed(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter, sessions.WithPersistedRefreshToken())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))

	stored, ok := adapter.Get(sessions.RefreshTokenKey)
	require.True(t, ok)
	require.Equal(t, "rt-1", stored)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rt-1", loaded.RefreshToken)
}

func TestWithoutPersistedTokensStripsTokenFields(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter, sessions.WithoutPersistedTokens())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))

	userJSON, ok := adapter.Get(sessions.UserKey)
	require.True(t, ok)
	var user authmodel.User
	require.NoError(t, json.Unmarshal([]byte(userJSON), &user))
	require.Empty(t, user.IDToken)
	require.Empty(t, user.AccessToken)
	require.Zero(t, user.ExpirationTime)
	require.Equal(t, "a@b.com", user.Email, "identity fields survive")
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	store, err := sessions.NewStore(storagefakes.NewFakeAdapter())
	require.NoError(t, err)

	session, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestLoadCorruptRecordDiscardedNotFatal(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	adapter.Set(sessions.UserKey, "{not-json")
	adapter.Set(sessions.ScopesKey, `["openid"]`)

	store, err := sessions.NewStore(adapter)
	require.NoError(t, err)

	session, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, session)

	_, ok := adapter.Get(sessions.UserKey)
	require.False(t, ok, "corrupt record must be removed")
}

func TestClearRemovesEveryKey(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter, sessions.WithPersistedRefreshToken())
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))
	require.NoError(t, store.Clear(context.Background()))
	require.Zero(t, adapter.Len())
}

func TestSaveNilSessionClears(t *testing.T) {
	adapter := storagefakes.NewFakeAdapter()
	store, err := sessions.NewStore(adapter)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSession()))
	require.NoError(t, store.Save(context.Background(), nil))
	require.Zero(t, adapter.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	original := testSession()
	clone := original.Clone()
	clone.User.Email = "mutated@b.com"
	clone.Scopes[0] = "mutated"

	require.Equal(t, "a@b.com", original.User.Email)
	require.Equal(t, "openid", original.Scopes[0])
}
