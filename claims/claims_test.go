package claims_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/claims"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestDecodeExtractsIdentityClaims(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{
		"sub":                "user-1",
		"email":              "john.doe@example.com",
		"preferred_username": "john.doe@contoso.com",
		"name":               "John Doe",
		"picture":            "https://example.com/p.jpg",
		"nonce":              "random-nonce-value",
	})

	identity, err := claims.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.Subject)
	require.Equal(t, "john.doe@example.com", identity.Email)
	require.Equal(t, "john.doe@contoso.com", identity.PreferredUsername)
	require.Equal(t, "John Doe", identity.Name)
	require.Equal(t, "https://example.com/p.jpg", identity.Picture)
	require.Equal(t, "random-nonce-value", identity.Nonce)
}

func TestDecodeMissingClaimsAreEmpty(t *testing.T) {
	identity, err := claims.Decode(signedToken(t, jwt.MapClaims{"sub": "user-1"}))
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.Subject)
	require.Empty(t, identity.Email)
	require.Empty(t, identity.Nonce)
}

func TestDecodeDoesNotVerifySignature(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"email": "a@b.com"})
	// Corrupt the signature segment; decode must still succeed.
	tampered := raw[:len(raw)-4] + "XXXX"

	identity, err := claims.Decode(tampered)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", identity.Email)
}

func TestDecodeMalformedTokenFails(t *testing.T) {
	_, err := claims.Decode("not-a-jwt")
	require.Error(t, err)
}

func TestDisplayEmailPrefersPreferredUsername(t *testing.T) {
	require.Equal(t, "a@contoso.com", claims.Identity{
		PreferredUsername: "a@contoso.com",
		Email:             "a@outlook.com",
	}.DisplayEmail())
	require.Equal(t, "a@outlook.com", claims.Identity{Email: "a@outlook.com"}.DisplayEmail())
}
