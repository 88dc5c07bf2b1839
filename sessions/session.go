// Package sessions holds the durable session aggregate and the store that
// serializes it through a storage adapter.
package sessions

import "github.com/jrsteele09/go-auth-client/authmodel"

// Session is the durable aggregate of the signed-in state: the normalized
// user record, the granted scope set, and the provider refresh token.
// It is created on first successful login, mutated by scope grant/revoke and
// token refresh, and cleared on logout. Only the auth service mutates it;
// provider adapters never touch the store directly.
type Session struct {
	User         *authmodel.User
	Scopes       []string
	RefreshToken string
}

// Clone returns a deep-enough copy so a caller cannot mutate stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := &Session{RefreshToken: s.RefreshToken}
	if s.User != nil {
		user := *s.User
		user.Scopes = append([]string{}, s.User.Scopes...)
		clone.User = &user
	}
	clone.Scopes = append([]string{}, s.Scopes...)
	return clone
}
