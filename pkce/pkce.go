// Package pkce implements the Proof Key for Code Exchange pieces of the
// authorization code flow (RFC 7636): code verifier generation, the S256
// challenge derivation, and the random state/nonce values carried through a
// single login attempt.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// verifierByteLength produces a 43-character base64url verifier, the RFC 7636
// minimum length, carrying 256 bits of entropy.
const verifierByteLength = 32

// GenerateVerifier creates a cryptographically random PKCE code verifier.
// The result is unpadded base64url, within the RFC 7636 43-128 character bounds.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierByteLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[pkce.GenerateVerifier] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Challenge derives the S256 code challenge from a verifier:
// BASE64URL(SHA256(verifier)), no padding.
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// RandomToken returns a UUID-grade random value for use as the state and
// nonce parameters of an authorization request.
func RandomToken() string {
	return uuid.New().String()
}
