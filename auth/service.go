// Package auth holds the orchestrating service: one instance owns the
// current session, dispatches logins to the provider adapters, commits their
// normalized results to the session store, and fans state changes out to
// observers. Adapters never touch the store; every write goes through here,
// guarded by a session epoch so a stale login or refresh resolution can
// never resurrect a session that a later logout already cleared.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/apple"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/google"
	"github.com/jrsteele09/go-auth-client/microsoft"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RefreshWindow is how close to expiry an access token may get before
// GetAccessToken refreshes it instead of returning it.
const RefreshWindow = 5 * time.Minute

// GoogleAdapter is the slice of the Google adapter the service drives.
type GoogleAdapter interface {
	Login(ctx context.Context, options authmodel.LoginOptions) (*google.Result, error)
	RequestScopes(ctx context.Context, granted, requested []string) (*google.Result, error)
	Refresh(ctx context.Context, refreshToken string, scopes []string) (*google.Result, error)
	SignOut(ctx context.Context) error
	LastSignedIn(ctx context.Context) (*google.Result, error)
	NativeAvailable() bool
}

// AppleAdapter is the slice of the Apple adapter the service drives.
type AppleAdapter interface {
	Login(ctx context.Context, options authmodel.LoginOptions) (*apple.Result, error)
	Available() bool
}

// MicrosoftAdapter is the slice of the Microsoft adapter the service drives.
type MicrosoftAdapter interface {
	Login(ctx context.Context, options authmodel.LoginOptions) (*microsoft.Result, error)
	Refresh(ctx context.Context, refreshToken string, scopes []string) (*microsoft.Result, error)
}

var (
	_ GoogleAdapter    = (*google.Adapter)(nil)
	_ AppleAdapter     = (*apple.Adapter)(nil)
	_ MicrosoftAdapter = (*microsoft.Adapter)(nil)
)

// Adapters carries the provider adapters the service dispatches to. A nil
// adapter means the provider is unavailable on this platform and logins for
// it fail with unsupported_provider.
type Adapters struct {
	Google    GoogleAdapter
	Apple     AppleAdapter
	Microsoft MicrosoftAdapter
}

// Service is the auth state machine. One instance per process; all exported
// methods are safe for concurrent use.
type Service struct {
	adapters  Adapters
	store     *sessions.Store
	observers *observers
	nowTime   func() time.Time

	mu            sync.Mutex
	session       *sessions.Session
	epoch         uint64
	cancelPending context.CancelFunc
}

// ServiceOption modifies a Service.
type ServiceOption func(*Service)

// WithNowTime overrides the clock, used by tests.
func WithNowTime(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = now
	}
}

// NewService creates the auth service over the given adapters and store.
func NewService(adapters Adapters, store *sessions.Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	service := &Service{
		adapters:  adapters,
		store:     store,
		observers: newObservers(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// OnAuthStateChanged registers an observer fired on login, scope change,
// restore and logout (with nil). Failed attempts never notify.
func (s *Service) OnAuthStateChanged(fn func(*authmodel.User)) Unsubscribe {
	return s.observers.onAuthState(fn)
}

// OnTokensRefreshed registers an observer fired when a refresh rotates the
// current user's tokens. This channel is distinct from auth-state changes.
func (s *Service) OnTokensRefreshed(fn func(authmodel.Tokens)) Unsubscribe {
	return s.observers.onTokens(fn)
}

// SetLoggingEnabled toggles the library's log output globally. Disabled by
// hosts that route diagnostics elsewhere.
func SetLoggingEnabled(enabled bool) {
	if enabled {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// NativeAvailable reports whether the provider has a native (non-browser)
// sign-in path on this platform.
func (s *Service) NativeAvailable(provider authmodel.Provider) bool {
	switch provider {
	case authmodel.ProviderGoogle:
		return s.adapters.Google != nil && s.adapters.Google.NativeAvailable()
	case authmodel.ProviderApple:
		return s.adapters.Apple != nil && s.adapters.Apple.Available()
	default:
		return false
	}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Service) CurrentUser() *authmodel.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return s.session.Clone().User
}

// GrantedScopes returns a copy of the current granted scope set.
func (s *Service) GrantedScopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return append([]string{}, s.session.Scopes...)
}

// Login signs in with the given provider. At most one interactive attempt is
// outstanding at a time: starting a second login supersedes the first, whose
// pending surface is cancelled and whose eventual resolution is discarded.
// On success the session is committed atomically and auth-state observers
// fire exactly once; on failure the prior session is untouched and observers
// stay silent.
func (s *Service) Login(ctx context.Context, provider authmodel.Provider, options authmodel.LoginOptions) (*authmodel.User, error) {
	if !provider.Valid() {
		return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "unknown provider %q", provider)
	}

	loginCtx, epoch := s.beginAttempt(ctx)
	defer s.endAttempt(epoch)

	user, err := s.dispatchLogin(loginCtx, provider, options)
	if err != nil {
		return nil, err
	}
	if !s.commit(&sessions.Session{User: user, Scopes: user.Scopes, RefreshToken: user.RefreshToken}, epoch) {
		return nil, authmodel.NewError(authmodel.ErrCancelled, "login superseded before it completed")
	}
	s.persist(ctx)
	s.observers.notifyAuthState(s.CurrentUser())
	return s.CurrentUser(), nil
}

func (s *Service) dispatchLogin(ctx context.Context, provider authmodel.Provider, options authmodel.LoginOptions) (*authmodel.User, error) {
	switch provider {
	case authmodel.ProviderGoogle:
		if s.adapters.Google == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Google sign-in is not available on this platform")
		}
		result, err := s.adapters.Google.Login(ctx, options)
		if err != nil {
			return nil, err
		}
		return result.User(), nil
	case authmodel.ProviderApple:
		if s.adapters.Apple == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Apple sign-in is not available on this platform")
		}
		result, err := s.adapters.Apple.Login(ctx, options)
		if err != nil {
			return nil, err
		}
		return result.User(), nil
	case authmodel.ProviderMicrosoft:
		if s.adapters.Microsoft == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Microsoft sign-in is not available on this platform")
		}
		result, err := s.adapters.Microsoft.Login(ctx, options)
		if err != nil {
			return nil, err
		}
		return result.User(), nil
	default:
		return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "unknown provider %q", provider)
	}
}

// RequestScopes merges the requested scopes into the granted set and drives
// the provider's scope-escalation path. Apple has no incremental consent.
func (s *Service) RequestScopes(ctx context.Context, scopes []string) (*authmodel.User, error) {
	session := s.currentSession()
	if session == nil {
		return nil, authmodel.NewError(authmodel.ErrNoUser, "no user is signed in")
	}
	merged := authmodel.MergeScopes(session.Scopes, scopes)

	loginCtx, epoch := s.beginAttempt(ctx)
	defer s.endAttempt(epoch)

	var user *authmodel.User
	switch session.User.Provider {
	case authmodel.ProviderGoogle:
		if s.adapters.Google == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Google sign-in is not available on this platform")
		}
		result, err := s.adapters.Google.RequestScopes(loginCtx, session.Scopes, scopes)
		if err != nil {
			return nil, err
		}
		user = result.User()
	case authmodel.ProviderMicrosoft:
		if s.adapters.Microsoft == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Microsoft sign-in is not available on this platform")
		}
		result, err := s.adapters.Microsoft.Login(loginCtx, authmodel.LoginOptions{Scopes: merged})
		if err != nil {
			return nil, err
		}
		user = result.User()
	default:
		return nil, authmodel.NewError(authmodel.ErrUnsupportedOperation, "%s does not support incremental scopes", session.User.Provider)
	}

	user.Scopes = authmodel.MergeScopes(merged, user.Scopes)
	next := &sessions.Session{User: user, Scopes: user.Scopes, RefreshToken: user.RefreshToken}
	if next.RefreshToken == "" {
		next.RefreshToken = session.RefreshToken
	}
	if !s.commit(next, epoch) {
		return nil, authmodel.NewError(authmodel.ErrCancelled, "scope request superseded before it completed")
	}
	s.persist(ctx)
	s.observers.notifyAuthState(s.CurrentUser())
	return s.CurrentUser(), nil
}

// RevokeScopes removes scopes from the granted set locally. No provider
// revocation endpoint is called. An empty set is a no-op and does not
// notify observers.
func (s *Service) RevokeScopes(ctx context.Context, scopes []string) error {
	if len(scopes) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return authmodel.NewError(authmodel.ErrNoUser, "no user is signed in")
	}
	s.session.Scopes = authmodel.RemoveScopes(s.session.Scopes, scopes)
	if s.session.User != nil {
		s.session.User.Scopes = append([]string{}, s.session.Scopes...)
	}
	s.mu.Unlock()

	s.persist(ctx)
	s.observers.notifyAuthState(s.CurrentUser())
	return nil
}

// GetAccessToken returns the current access token, refreshing it first when
// it is within the refresh window of expiry. A token with no expiration
// never triggers a refresh. Returns empty with no error when signed out.
func (s *Service) GetAccessToken(ctx context.Context) (string, error) {
	session := s.currentSession()
	if session == nil || session.User == nil {
		return "", nil
	}
	expiration := session.User.ExpirationTime
	if expiration == 0 || s.nowTime().Add(RefreshWindow).UnixMilli() <= expiration {
		return session.User.AccessToken, nil
	}

	tokens, err := s.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

// RefreshToken performs a provider refresh, updates the current user's token
// fields and notifies token-refresh observers. Auth-state observers do not
// fire for refreshes.
func (s *Service) RefreshToken(ctx context.Context) (*authmodel.Tokens, error) {
	session := s.currentSession()
	if session == nil || session.User == nil {
		return nil, authmodel.NewError(authmodel.ErrNoUser, "no user is signed in")
	}

	refreshToken := session.RefreshToken
	if refreshToken == "" {
		refreshToken = session.User.RefreshToken
	}

	epoch := s.currentEpoch()
	var refreshed *authmodel.User
	switch session.User.Provider {
	case authmodel.ProviderGoogle:
		if s.adapters.Google == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Google sign-in is not available on this platform")
		}
		result, err := s.adapters.Google.Refresh(ctx, refreshToken, session.Scopes)
		if err != nil {
			return nil, err
		}
		refreshed = result.User()
	case authmodel.ProviderMicrosoft:
		if s.adapters.Microsoft == nil {
			return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "Microsoft sign-in is not available on this platform")
		}
		if refreshToken == "" {
			return nil, authmodel.NewError(authmodel.ErrRefreshFailed, "no refresh token is available")
		}
		result, err := s.adapters.Microsoft.Refresh(ctx, refreshToken, session.Scopes)
		if err != nil {
			return nil, err
		}
		refreshed = result.User()
	default:
		return nil, authmodel.NewError(authmodel.ErrUnsupportedProvider, "%s has no refresh mechanism", session.User.Provider)
	}

	tokens := s.applyRefresh(refreshed, epoch)
	if tokens == nil {
		return nil, authmodel.NewError(authmodel.ErrCancelled, "session was cleared during refresh")
	}
	s.persist(ctx)
	s.observers.notifyTokens(*tokens)
	return tokens, nil
}

// applyRefresh merges rotated token fields into the live session in place.
// Returns nil when a logout cleared the session while the refresh was in
// flight, in which case the result is discarded.
func (s *Service) applyRefresh(refreshed *authmodel.User, epoch uint64) *authmodel.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.User == nil || s.epoch != epoch {
		return nil
	}

	user := s.session.User
	user.AccessToken = refreshed.AccessToken
	user.ExpirationTime = refreshed.ExpirationTime
	if refreshed.IDToken != "" {
		user.IDToken = refreshed.IDToken
	}
	if refreshed.RefreshToken != "" {
		user.RefreshToken = refreshed.RefreshToken
		s.session.RefreshToken = refreshed.RefreshToken
	}
	tokens := user.Tokens()
	return &tokens
}

// Logout clears the session synchronously: in-memory state first, then the
// store (including any persisted refresh token), then a best-effort native
// SDK sign-out. Auth-state observers are notified with nil. A login in
// flight when Logout lands has its eventual success discarded.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
	s.epoch++
	hadUser := s.session != nil
	provider := authmodel.Provider("")
	if hadUser && s.session.User != nil {
		provider = s.session.User.Provider
	}
	s.session = nil
	s.mu.Unlock()

	if provider == authmodel.ProviderGoogle && s.adapters.Google != nil {
		if err := s.adapters.Google.SignOut(ctx); err != nil {
			log.Warn().Err(err).Msg("[Logout] native sign-out failed")
		}
	}

	err := s.store.Clear(ctx)
	if hadUser {
		s.observers.notifyAuthState(nil)
	}
	return err
}

// SilentRestore hydrates the session from persisted storage, falling back to
// the native SDK's last-signed-in account. Absence of a prior session is not
// an error; the restored user (or nil) is returned. No interactive UI runs.
func (s *Service) SilentRestore(ctx context.Context) (*authmodel.User, error) {
	if s.currentSession() != nil {
		return s.CurrentUser(), nil
	}
	epoch := s.currentEpoch()

	session, err := s.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[SilentRestore] loading persisted session failed")
	}

	if session == nil && s.adapters.Google != nil && s.adapters.Google.NativeAvailable() {
		result, err := s.adapters.Google.LastSignedIn(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("[SilentRestore] no native last-signed-in account")
		} else if result != nil {
			user := result.User()
			session = &sessions.Session{User: user, Scopes: user.Scopes, RefreshToken: user.RefreshToken}
		}
	}
	if session == nil {
		return nil, nil
	}
	if !s.commit(session, epoch) {
		return nil, nil
	}
	user := s.CurrentUser()
	s.observers.notifyAuthState(user)
	return user, nil
}

// beginAttempt supersedes any pending interactive attempt and opens a new
// one: the previous attempt's context is cancelled so its surface closes
// with a cancelled failure, and the epoch advances so its late resolution
// cannot commit.
func (s *Service) beginAttempt(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelPending != nil {
		s.cancelPending()
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	s.cancelPending = cancel
	s.epoch++
	return attemptCtx, s.epoch
}

func (s *Service) endAttempt(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch && s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
}

// commit installs the session only if no logout or newer attempt advanced
// the epoch since the attempt began.
func (s *Service) commit(session *sessions.Session, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.session = session
	return true
}

// persist writes the live session through the store. Storage is a cache of
// the in-memory session, so a write failure degrades persistence but does
// not fail the operation that triggered it.
func (s *Service) persist(ctx context.Context) {
	s.mu.Lock()
	session := s.session.Clone()
	s.mu.Unlock()
	if err := s.store.Save(ctx, session); err != nil {
		log.Warn().Err(err).Msg("[persist] saving session failed")
	}
}

func (s *Service) currentSession() *sessions.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

func (s *Service) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
