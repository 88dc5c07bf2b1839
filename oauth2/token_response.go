package oauth2

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in
// RFC 6749, as returned by the Google and Microsoft token endpoints for both
// the authorization_code and refresh_token grants.
type TokenResponse struct {
	// AccessToken is the bearer token used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (typically 1 hour)
	AccessToken string `json:"access_token,omitempty"`

	// IDToken is the OpenID Connect ID token containing user identity claims.
	// Only present when the "openid" scope was requested.
	IDToken string `json:"id_token,omitempty"`

	// TokenType indicates how to use the access token (always "Bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600 (for 1 hour)
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Only present when "offline_access" (Microsoft) or access_type=offline
	// (Google) was requested. Providers may rotate it on each refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope indicates the access token's granted permissions as a
	// space-separated list. Providers may narrow it from what was requested.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse represents the error body returned by a token endpoint on a
// non-success HTTP status, per RFC 6749 §5.2. Both fields are passed through
// verbatim to callers for diagnostics.
type ErrorResponse struct {
	// Error is the machine-readable error code, e.g. "invalid_grant".
	Error string `json:"error,omitempty"`

	// ErrorDescription is the human-readable explanation from the provider.
	ErrorDescription string `json:"error_description,omitempty"`
}
