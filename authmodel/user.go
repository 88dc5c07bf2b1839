package authmodel

// Tokens carries the token fields returned by a login or refresh. Every field
// is best-effort: not every flow returns every field (the Apple native flow
// yields only an identity token, no access or refresh token).
type Tokens struct {
	AccessToken  string `json:"accessToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpirationTime is the absolute instant the access token expires, in
	// epoch milliseconds. Zero means the provider issued no expiry and the
	// token is treated as never expiring.
	ExpirationTime int64 `json:"expirationTime,omitempty"`
}

// User is the normalized record every provider adapter resolves to.
// Provider is always present; all other fields are best-effort per provider
// capability (Apple repeat logins carry neither email nor name).
type User struct {
	Provider       Provider `json:"provider"`
	Email          string   `json:"email,omitempty"`
	Name           string   `json:"name,omitempty"`
	Photo          string   `json:"photo,omitempty"`
	IDToken        string   `json:"idToken,omitempty"`
	AccessToken    string   `json:"accessToken,omitempty"`
	RefreshToken   string   `json:"refreshToken,omitempty"`
	ServerAuthCode string   `json:"serverAuthCode,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	ExpirationTime int64    `json:"expirationTime,omitempty"`

	// UnderlyingError is a diagnostic passthrough from the native layer,
	// never a control field.
	UnderlyingError string `json:"underlyingError,omitempty"`
}

// Tokens returns the token fields of the user record.
func (u *User) Tokens() Tokens {
	return Tokens{
		AccessToken:    u.AccessToken,
		IDToken:        u.IDToken,
		RefreshToken:   u.RefreshToken,
		ExpirationTime: u.ExpirationTime,
	}
}

// MergeScopes returns the union of two scope lists, deduplicated, preserving
// first-seen order.
func MergeScopes(current, requested []string) []string {
	merged := make([]string, 0, len(current)+len(requested))
	seen := make(map[string]bool, len(current)+len(requested))
	for _, s := range append(append([]string{}, current...), requested...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		merged = append(merged, s)
	}
	return merged
}

// RemoveScopes returns current minus revoked, preserving order.
func RemoveScopes(current, revoked []string) []string {
	drop := make(map[string]bool, len(revoked))
	for _, s := range revoked {
		drop[s] = true
	}
	remaining := make([]string, 0, len(current))
	for _, s := range current {
		if !drop[s] {
			remaining = append(remaining, s)
		}
	}
	return remaining
}

// ContainsScopes reports whether every requested scope is already present.
func ContainsScopes(current, requested []string) bool {
	held := make(map[string]bool, len(current))
	for _, s := range current {
		held[s] = true
	}
	for _, s := range requested {
		if !held[s] {
			return false
		}
	}
	return true
}
