package domain

import "time"

// Roles assignable to an account. Self-service registration defaults to
// RoleUser; RoleAdmin is accepted on the wire for operator-driven setups.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Account is a fully registered user. Accounts only come into existence
// once the holder has proven control of an authenticator app, so MFASecret
// is always populated.
type Account struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Active    bool

	// PasswordHash is a PHC-formatted argon2id hash.
	PasswordHash string
	// MFASecret is the base32-encoded TOTP secret. It never leaves the
	// backend after enrollment and must never be logged.
	MFASecret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName is the account holder's full name for presentation.
func (a Account) DisplayName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
