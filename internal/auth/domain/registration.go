package domain

import "time"

// DefaultPendingRegistrationTTL bounds how long an applicant has to finish
// MFA enrollment before their provisional record lapses.
const DefaultPendingRegistrationTTL = 10 * time.Minute

// RegistrationProfile is the applicant-supplied input to begin enrollment.
// Validation tags line up with what the HTTP layer accepts.
type RegistrationProfile struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" validate:"required,max=30"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user"`
}

// PendingRegistration is the provisional record parked between beginning
// enrollment and proving control of the authenticator. It is keyed by an
// opaque session key and holds everything needed to mint the account, so
// completion does not trust any client-supplied profile data.
type PendingRegistration struct {
	SessionKey   string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	PasswordHash string
	// MFASecret is the base32 TOTP secret provisioned for this applicant.
	MFASecret string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record has lapsed as of now.
func (p PendingRegistration) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// EnrollmentChallenge is handed back from beginning enrollment. The secret
// and provisioning URI are disclosed exactly once, here, so the applicant
// can seed their authenticator app.
type EnrollmentChallenge struct {
	SessionKey      string
	Secret          string
	ProvisioningURI string
	ExpiresAt       time.Time
}
