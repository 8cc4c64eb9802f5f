package domain

import "time"

// TokenPair is the session material issued once MFA verification succeeds.
// AccessToken is a signed JWT; RefreshToken is an opaque random value whose
// fingerprint is what the store keeps.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// RefreshToken is the stored side of an opaque refresh credential. Only the
// SHA-256 fingerprint of the presented value is persisted.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	Revoked   bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token can still be redeemed as of now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
