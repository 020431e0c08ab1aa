package domain

import "time"

// Credential binds an identity (email or phone) to a password hash and role.
// Revision is the optimistic-concurrency version: every mutation must name the
// revision it read, and bumps it by one.
type Credential struct {
	ID               string
	Revision         int64
	Email            string
	Phone            string
	PasswordHash     string
	Role             string
	ResetToken       string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPendingReset reports whether an unexpired reset token is on record.
func (c *Credential) HasPendingReset(now time.Time) bool {
	return c.ResetToken != "" && c.ResetTokenExpiry != nil && !now.After(*c.ResetTokenExpiry)
}

// VerifiedIdentity is what an external identity provider hands back after a
// successful token exchange.
type VerifiedIdentity struct {
	Email       string
	DisplayName string
}
