// Package authmodel holds the canonical data model shared by the provider
// adapters and the auth service: the provider tag, login options, the
// normalized user/token records, and the error taxonomy.
package authmodel

// Provider identifies which identity provider an operation targets. It
// determines the adapter used and the shape of the token endpoint exchange.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderApple     Provider = "apple"
	ProviderMicrosoft Provider = "microsoft"
)

// Valid reports whether p is one of the known provider tags.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderApple, ProviderMicrosoft:
		return true
	}
	return false
}

// LoginOptions configures a single login attempt. All fields are optional;
// absence means the provider default applies.
type LoginOptions struct {
	// Scopes to request. Empty means the provider's default sign-in scopes.
	Scopes []string

	// LoginHint pre-selects or pre-fills the account on the provider's UI.
	// Security: hint only, never trusted.
	LoginHint string

	// UseOneTap prefers the native one-tap / credential-manager path (Google).
	UseOneTap bool

	// UseSheet prefers the native sign-in sheet where the platform has one.
	UseSheet bool

	// ForceAccountPicker signs out of any cached account first so the picker
	// is guaranteed to show all accounts.
	ForceAccountPicker bool

	// Tenant overrides the Azure AD tenant (Microsoft only).
	// Example: "common", "organizations", "contoso.onmicrosoft.com", or a full URL.
	Tenant string

	// Prompt overrides the authorize prompt behavior (Microsoft only).
	// Example: "login", "consent", "select_account", "none".
	Prompt string
}
