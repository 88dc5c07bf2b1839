package sessions

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Persisted record keys. One JSON user record, one JSON scope array, and the
// Microsoft refresh token as a bare string.
const (
	UserKey         = "auth_user"
	ScopesKey       = "auth_scopes"
	RefreshTokenKey = "microsoft_refresh_token"
)

// Store serializes the Session aggregate through a storage adapter, applying
// the persistence policy: token fields may be stripped from the persisted
// user, and the refresh token is held in memory only unless explicitly
// allowed to persist (it outlives access tokens, so writing it to general
// storage widens the theft window).
type Store struct {
	adapter             storage.Adapter
	persistTokens       bool
	persistRefreshToken bool
}

// StoreOption modifies a Store.
type StoreOption func(*Store)

// WithoutPersistedTokens strips idToken/accessToken/refreshToken and the
// expiration instant from the persisted user record.
func WithoutPersistedTokens() StoreOption {
	return func(s *Store) {
		s.persistTokens = false
	}
}

// WithPersistedRefreshToken allows the refresh token to be written to the
// adapter instead of living in memory only.
func WithPersistedRefreshToken() StoreOption {
	return func(s *Store) {
		s.persistRefreshToken = true
	}
}

// NewStore creates a session store over the given adapter.
func NewStore(adapter storage.Adapter, options ...StoreOption) (*Store, error) {
	if adapter == nil {
		return nil, errors.New("[NewStore] storage adapter is required")
	}
	store := &Store{
		adapter:       adapter,
		persistTokens: true,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Save writes the session to the adapter. A nil session clears storage.
func (s *Store) Save(ctx context.Context, session *Session) error {
	if session == nil || session.User == nil {
		return s.Clear(ctx)
	}

	userJSON, err := json.Marshal(s.persistableUser(session.User))
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal user")
	}
	if err := s.adapter.Save(ctx, UserKey, string(userJSON)); err != nil {
		return errors.Wrap(err, "[Store.Save] save user")
	}

	scopesJSON, err := json.Marshal(session.Scopes)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal scopes")
	}
	if err := s.adapter.Save(ctx, ScopesKey, string(scopesJSON)); err != nil {
		return errors.Wrap(err, "[Store.Save] save scopes")
	}

	if s.persistRefreshToken && session.RefreshToken != "" {
		if err := s.adapter.Save(ctx, RefreshTokenKey, session.RefreshToken); err != nil {
			return errors.Wrap(err, "[Store.Save] save refresh token")
		}
	} else {
		if err := s.adapter.Remove(ctx, RefreshTokenKey); err != nil {
			return errors.Wrap(err, "[Store.Save] remove refresh token")
		}
	}
	return nil
}

// Load hydrates a session from the adapter. Absence returns (nil, nil); a
// corrupt record is discarded and removed rather than surfaced as an error,
// so a bad write can never brick sign-in.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	userJSON, ok, err := s.adapter.Load(ctx, UserKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Load] load user")
	}
	if !ok {
		return nil, nil
	}

	var user authmodel.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil || !user.Provider.Valid() {
		log.Warn().Msg("Discarding corrupt persisted auth user record")
		_ = s.adapter.Remove(ctx, UserKey)
		_ = s.adapter.Remove(ctx, ScopesKey)
		return nil, nil
	}

	session := &Session{User: &user}

	if scopesJSON, ok, err := s.adapter.Load(ctx, ScopesKey); err != nil {
		return nil, errors.Wrap(err, "[Store.Load] load scopes")
	} else if ok {
		if err := json.Unmarshal([]byte(scopesJSON), &session.Scopes); err != nil {
			log.Warn().Msg("Discarding corrupt persisted scopes record")
			_ = s.adapter.Remove(ctx, ScopesKey)
			session.Scopes = nil
		}
	}
	if session.Scopes == nil {
		session.Scopes = append([]string{}, user.Scopes...)
	}

	if refreshToken, ok, err := s.adapter.Load(ctx, RefreshTokenKey); err != nil {
		return nil, errors.Wrap(err, "[Store.Load] load refresh token")
	} else if ok {
		session.RefreshToken = refreshToken
	} else if s.persistTokens {
		session.RefreshToken = user.RefreshToken
	}

	return session, nil
}

// Clear removes every persisted record.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range []string{UserKey, ScopesKey, RefreshTokenKey} {
		if err := s.adapter.Remove(ctx, key); err != nil {
			return errors.Wrapf(err, "[Store.Clear] remove %s", key)
		}
	}
	return nil
}

func (s *Store) persistableUser(user *authmodel.User) *authmodel.User {
	persisted := *user
	persisted.Scopes = append([]string{}, user.Scopes...)
	if !s.persistTokens {
		persisted.IDToken = ""
		persisted.AccessToken = ""
		persisted.RefreshToken = ""
		persisted.ExpirationTime = 0
	}
	if !s.persistRefreshToken {
		// The refresh token only ever goes to its dedicated key.
		persisted.RefreshToken = ""
	}
	return &persisted
}
