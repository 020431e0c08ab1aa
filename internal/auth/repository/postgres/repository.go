package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tekriders/auth-service/internal/auth/domain"
	autherror "github.com/tekriders/auth-service/internal/errors"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CredentialRepository struct {
	db DB
}

func NewCredentialRepository(db DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

const credentialColumns = `id, revision, email, phone, password_hash, role, reset_token, reset_token_expiry, created_at, updated_at`

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	return r.getByIdentifier(ctx, "email", email)
}

func (r *CredentialRepository) GetByPhone(ctx context.Context, phone string) (*domain.Credential, error) {
	return r.getByIdentifier(ctx, "phone", phone)
}

func (r *CredentialRepository) getByIdentifier(ctx context.Context, column, value string) (*domain.Credential, error) {
	query := fmt.Sprintf(`SELECT %s FROM credentials WHERE %s = $1 LIMIT 1`, credentialColumns, column)
	row := r.db.QueryRow(ctx, query, value)

	var (
		c                domain.Credential
		email, phone     *string
		resetToken       *string
		resetTokenExpiry *time.Time
	)
	err := row.Scan(&c.ID, &c.Revision, &email, &phone, &c.PasswordHash, &c.Role,
		&resetToken, &resetTokenExpiry, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential by %s: %w", column, err)
	}

	if email != nil {
		c.Email = *email
	}
	if phone != nil {
		c.Phone = *phone
	}
	if resetToken != nil {
		c.ResetToken = *resetToken
	}
	c.ResetTokenExpiry = resetTokenExpiry

	return &c, nil
}

// Create inserts a new credential. Concurrent registrations for the same
// identifier are serialized with a transaction-scoped advisory lock, and the
// uniqueness check runs again under that lock, so two racing inserts cannot
// both pass it. The partial unique indexes are the backstop.
func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, identifier := range []string{cred.Email, cred.Phone} {
		if identifier == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, identifier); err != nil {
			return fmt.Errorf("failed to acquire registration lock: %w", err)
		}
	}

	if cred.Email != "" {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`, cred.Email).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if exists {
			return autherror.ErrEmailAlreadyInUse
		}
	}

	if cred.Phone != "" {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM credentials WHERE phone = $1)`, cred.Phone).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check phone uniqueness: %w", err)
		}
		if exists {
			return autherror.ErrPhoneAlreadyInUse
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO credentials (id, revision, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, 1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
	`, cred.ID, cred.Email, cred.Phone, cred.PasswordHash, cred.Role, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		return uniqueViolation(err)
	}

	return tx.Commit(ctx)
}

// SetResetToken writes the reset-token pair with a compare-and-swap on the
// revision the caller read. Zero rows affected means a concurrent writer won.
func (r *CredentialRepository) SetResetToken(ctx context.Context, id string, revision int64, token string, expiry time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credentials
		SET reset_token = $3, reset_token_expiry = $4, revision = revision + 1, updated_at = now()
		WHERE id = $1 AND revision = $2
	`, id, revision, token, expiry)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrWriteConflict
	}

	return nil
}

// UpdatePassword stores the new hash and clears the reset-token pair in one
// compare-and-swap write, so a consumed token cannot be replayed.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, id string, revision int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credentials
		SET password_hash = $3, reset_token = NULL, reset_token_expiry = NULL, revision = revision + 1, updated_at = now()
		WHERE id = $1 AND revision = $2
	`, id, revision, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrWriteConflict
	}

	return nil
}

func (r *CredentialRepository) RecordLoginAttempt(ctx context.Context, identifier, ip string, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, identifier, ip_address, attempt_time, successful)
		VALUES (gen_random_uuid(), $1, $2, now(), $3)
	`, identifier, ip, success)

	return err
}

func (r *CredentialRepository) CountRecentFailedAttempts(ctx context.Context, identifier, ip string, window time.Duration) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM login_attempts
		WHERE identifier = $1 AND ip_address = $2 AND successful = false AND attempt_time > $3
	`, identifier, ip, time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}

	return count, nil
}

func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "phone") {
			return autherror.ErrPhoneAlreadyInUse
		}
		return autherror.ErrEmailAlreadyInUse
	}

	return fmt.Errorf("failed to insert credential: %w", err)
}
