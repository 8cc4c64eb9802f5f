package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/store"
	"github.com/filefortress/fortress/pkg/cryptox"
	"github.com/filefortress/fortress/pkg/idx"
	"github.com/filefortress/fortress/pkg/slogx"
	"github.com/filefortress/fortress/pkg/totpx"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingSessionKey      = errors.New("missing registration session key")
	ErrProfileInvalid         = errors.New("registration profile is invalid")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrNoPendingRegistration  = errors.New("no pending registration for session")
	ErrInvalidMFACode         = errors.New("invalid MFA code")
	ErrMalformedMFACode       = errors.New("malformed MFA code")
	ErrAccountCreationFailed  = errors.New("account creation failed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// EnrollmentService owns the two-phase registration flow: Begin parks a
// provisional record and hands out a TOTP provisioning challenge, Complete
// promotes it to an account once the applicant proves control of their
// authenticator. No account row exists until Complete succeeds.
type EnrollmentService struct {
	Store  store.Store
	Issuer string // Issuer label baked into provisioning URIs (e.g. "FileFortress")

	// PendingTTL bounds how long Begin's challenge stays redeemable.
	// Zero means domain.DefaultPendingRegistrationTTL.
	PendingTTL time.Duration

	// Window is the TOTP step tolerance in either direction. Zero means
	// totpx.DefaultWindow.
	Window uint
}

func (s *EnrollmentService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return domain.DefaultPendingRegistrationTTL
}

func (s *EnrollmentService) window() uint {
	if s.Window > 0 {
		return s.Window
	}
	return totpx.DefaultWindow
}

// Begin validates the profile, provisions a fresh TOTP secret and parks the
// whole candidate under the caller's session key. Calling it again under the
// same key replaces the earlier record wholesale, including the secret.
func (s *EnrollmentService) Begin(ctx context.Context, sessionKey string, profile domain.RegistrationProfile) (domain.EnrollmentChallenge, error) {
	if sessionKey == "" {
		return domain.EnrollmentChallenge{}, ErrMissingSessionKey
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Role == "" {
		profile.Role = domain.RoleUser
	}
	if err := validate.Struct(profile); err != nil {
		// Validator errors name fields and tags only, never values.
		return domain.EnrollmentChallenge{}, fmt.Errorf("%w: %v", ErrProfileInvalid, err)
	}

	// Early rejection so applicants learn about a taken email before they
	// touch their authenticator. Complete re-checks inside the transaction.
	taken, err := s.Store.Accounts().EmailExists(ctx, profile.Email)
	if err != nil {
		return domain.EnrollmentChallenge{}, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return domain.EnrollmentChallenge{}, ErrEmailAlreadyRegistered
	}

	hash, err := cryptox.HashPassword(profile.Password)
	if err != nil {
		return domain.EnrollmentChallenge{}, fmt.Errorf("failed to hash password: %w", err)
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return domain.EnrollmentChallenge{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	uri, err := totpx.ProvisioningURI(profile.Email, secret, s.Issuer)
	if err != nil {
		return domain.EnrollmentChallenge{}, fmt.Errorf("failed to build provisioning URI: %w", err)
	}

	now := time.Now().UTC()
	pending := domain.PendingRegistration{
		SessionKey:   sessionKey,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Role:         profile.Role,
		PasswordHash: hash,
		MFASecret:    secret,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.pendingTTL()),
	}
	if err := s.Store.PendingRegistrations().UpsertPendingRegistration(ctx, pending); err != nil {
		return domain.EnrollmentChallenge{}, fmt.Errorf("failed to park pending registration: %w", err)
	}

	slogx.FromContext(ctx).Info("registration started",
		slog.String("email", profile.Email),
		slog.Time("expires_at", pending.ExpiresAt),
	)

	return domain.EnrollmentChallenge{
		SessionKey:      sessionKey,
		Secret:          secret,
		ProvisioningURI: uri,
		ExpiresAt:       pending.ExpiresAt,
	}, nil
}

// Complete redeems the pending registration under sessionKey by verifying a
// current TOTP code against the parked secret. On success the account row is
// created and the pending record removed in one transaction. On any failure,
// including a wrong code, the pending record is left untouched so the
// applicant can retry until the TTL lapses.
func (s *EnrollmentService) Complete(ctx context.Context, sessionKey string, code string) (domain.Account, error) {
	now := time.Now().UTC()

	pending, err := s.Store.PendingRegistrations().GetPendingRegistration(ctx, sessionKey, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrNoPendingRegistration
		}
		return domain.Account{}, fmt.Errorf("failed to load pending registration: %w", err)
	}

	res, err := totpx.Verify(pending.MFASecret, code, now, s.window())
	if err != nil {
		if errors.Is(err, totpx.ErrInvalidCode) {
			return domain.Account{}, ErrMalformedMFACode
		}
		return domain.Account{}, fmt.Errorf("failed to verify TOTP code: %w", err)
	}
	if !res.Verified {
		return domain.Account{}, ErrInvalidMFACode
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        pending.Email,
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Role:         pending.Role,
		Active:       true,
		PasswordHash: pending.PasswordHash,
		MFASecret:    pending.MFASecret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.PendingRegistrations().DeletePendingRegistration(ctx, sessionKey)
	})
	if err != nil {
		// Rollback keeps the pending record, so a lost race on the email or
		// a transient store failure never burns the applicant's enrollment.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailAlreadyRegistered
		}
		return domain.Account{}, fmt.Errorf("%w: %v", ErrAccountCreationFailed, err)
	}

	slogx.FromContext(ctx).Info("registration completed",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
		slog.Int("totp_offset", res.Offset),
	)

	return account, nil
}
