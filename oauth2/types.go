package oauth2

// ResponseType represents the OAuth 2.0 response type requested from the
// authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth2/v2.0/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are returned
// to the redirect URI.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Example: https://localhost/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"

	// FragmentResponseMode returns parameters in the URL fragment (after #).
	// Used by Google's popup responses where tokens are returned directly.
	FragmentResponseMode ResponseModeType = "fragment"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge
// method sent alongside the code challenge.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// The client sends: code_challenge = BASE64URL(SHA256(code_verifier)).
	// Every provider this library talks to requires S256.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, redirect_uri, code_verifier.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenCodeGrant exchanges a refresh token for new tokens.
	// Token request includes: refresh_token, client_id, scope.
	RefreshTokenCodeGrant GrantType = "refresh_token"
)

// PromptType controls whether the provider forces an interactive prompt.
// Microsoft accepts these values on the authorize URL; the other providers
// have their own prompt vocabularies handled inside the adapters.
type PromptType string

const (
	// PromptLogin forces the user to re-enter credentials.
	PromptLogin PromptType = "login"

	// PromptConsent forces the consent screen even for previously granted scopes.
	PromptConsent PromptType = "consent"

	// PromptSelectAccount shows the account picker. This is the default for
	// interactive logins so multi-account users always get a choice.
	PromptSelectAccount PromptType = "select_account"

	// PromptNone attempts a silent sign-in; the provider errors instead of
	// showing UI if interaction would be required.
	PromptNone PromptType = "none"
)
