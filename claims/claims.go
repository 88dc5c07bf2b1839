// Package claims decodes identity-token payloads for display and nonce
// checking. Decoding here is NOT cryptographic verification: signatures are
// never checked, and nothing in a decoded Identity may be used as a trust
// decision. Callers needing verified tokens must validate signatures against
// the provider's published keys, which this library does not do.
package claims

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Identity is the subset of OIDC ID-token claims this library surfaces.
type Identity struct {
	Subject           string
	Email             string
	PreferredUsername string
	Name              string
	Picture           string
	Nonce             string
}

// DisplayEmail returns the best-effort email claim: Microsoft issues
// preferred_username for work accounts and email for personal ones.
func (i Identity) DisplayEmail() string {
	if i.PreferredUsername != "" {
		return i.PreferredUsername
	}
	return i.Email
}

// Decode extracts claims from an ID token without verifying its signature.
func Decode(rawToken string) (*Identity, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, mapClaims); err != nil {
		return nil, errors.Wrap(err, "[claims.Decode] ParseUnverified")
	}

	return &Identity{
		Subject:           stringClaim(mapClaims, "sub"),
		Email:             stringClaim(mapClaims, "email"),
		PreferredUsername: stringClaim(mapClaims, "preferred_username"),
		Name:              stringClaim(mapClaims, "name"),
		Picture:           stringClaim(mapClaims, "picture"),
		Nonce:             stringClaim(mapClaims, "nonce"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
