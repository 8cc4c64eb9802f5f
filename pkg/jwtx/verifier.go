package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a compact JWT and returns its parsed claims.
type Verifier interface {
	Verify(tokenStr string) (*Claims, error)
}

// EdDSAVerifier validates JWTs signed with Ed25519, resolving keys by kid.
type EdDSAVerifier struct {
	keys   map[string]ed25519.PublicKey
	issuer string
}

// NewVerifierEdDSA builds a verifier for the given signers' public keys.
func NewVerifierEdDSA(issuer string, signers ...*EdDSASigner) *EdDSAVerifier {
	keys := make(map[string]ed25519.PublicKey, len(signers))
	for _, s := range signers {
		keys[s.KID()] = s.Public()
	}
	return &EdDSAVerifier{keys: keys, issuer: issuer}
}

// Verify validates signature, issuer, and expiry window.
func (v *EdDSAVerifier) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		pub, ok := v.keys[kid]
		if !ok {
			return nil, fmt.Errorf("jwtx: unknown kid %q", kid)
		}
		return pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("jwtx: invalid token claims")
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return nil, err
	}
	return claims, nil
}
