package domain

import (
	"context"
	"time"
)

type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByPhone(ctx context.Context, phone string) (*Credential, error)
	Create(ctx context.Context, cred *Credential) error
	SetResetToken(ctx context.Context, id string, revision int64, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id string, revision int64, passwordHash string) error
	RecordLoginAttempt(ctx context.Context, identifier, ip string, success bool) error
	CountRecentFailedAttempts(ctx context.Context, identifier, ip string, window time.Duration) (int, error)
}

// IdentityVerifier exchanges a provider token for a verified identity. The
// concrete provider (e.g. Google) lives outside this service.
type IdentityVerifier interface {
	Verify(ctx context.Context, providerToken string) (*VerifiedIdentity, error)
}
