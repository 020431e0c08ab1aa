package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekriders/auth-service/internal/auth/domain"
	repo "github.com/tekriders/auth-service/internal/auth/repository/postgres"
	autherror "github.com/tekriders/auth-service/internal/errors"
)

var credentialColumns = []string{
	"id", "revision", "email", "phone", "password_hash", "role",
	"reset_token", "reset_token_expiry", "created_at", "updated_at",
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewCredentialRepository(mock)
	ctx := context.Background()
	email := "a@x.com"

	t.Run("success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT id, revision, email").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(credentialColumns).
				AddRow("cred-id", int64(2), &email, nil, "hash", "student", nil, nil, now, now))

		cred, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, cred)
		assert.Equal(t, "cred-id", cred.ID)
		assert.Equal(t, int64(2), cred.Revision)
		assert.Equal(t, email, cred.Email)
		assert.Empty(t, cred.Phone)
		assert.Empty(t, cred.ResetToken)
		assert.Nil(t, cred.ResetTokenExpiry)
	})

	t.Run("pending reset fields scanned", func(t *testing.T) {
		now := time.Now()
		token := "reset-token"
		expiry := now.Add(time.Hour)
		mock.ExpectQuery("SELECT id, revision, email").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(credentialColumns).
				AddRow("cred-id", int64(3), &email, nil, "hash", "student", &token, &expiry, now, now))

		cred, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, token, cred.ResetToken)
		require.NotNil(t, cred.ResetTokenExpiry)
		assert.WithinDuration(t, expiry, *cred.ResetTokenExpiry, time.Second)
	})

	t.Run("not found returns nil, nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, revision, email").
			WithArgs(email).
			WillReturnError(pgx.ErrNoRows)

		cred, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Nil(t, cred)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, revision, email").
			WithArgs(email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, email)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	cred := &domain.Credential{
		ID:           "cred-id",
		Revision:     1,
		Email:        "a@x.com",
		PasswordHash: "hash",
		Role:         "student",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		r := repo.NewCredentialRepository(mock)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(cred.Email).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(cred.Email).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO credentials").
			WithArgs(cred.ID, cred.Email, cred.Phone, cred.PasswordHash, cred.Role, cred.CreatedAt, cred.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, r.Create(ctx, cred))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate under lock", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		r := repo.NewCredentialRepository(mock)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(cred.Email).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(cred.Email).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err = r.Create(ctx, cred)
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewCredentialRepository(mock)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE credentials").
			WithArgs("cred-id", int64(2), "token", expiry).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.SetResetToken(ctx, "cred-id", 2, "token", expiry))
	})

	t.Run("stale revision", func(t *testing.T) {
		mock.ExpectExec("UPDATE credentials").
			WithArgs("cred-id", int64(1), "token", expiry).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.SetResetToken(ctx, "cred-id", 1, "token", expiry)
		assert.ErrorIs(t, err, autherror.ErrWriteConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewCredentialRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE credentials").
			WithArgs("cred-id", int64(3), "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.UpdatePassword(ctx, "cred-id", 3, "new-hash"))
	})

	t.Run("stale revision", func(t *testing.T) {
		mock.ExpectExec("UPDATE credentials").
			WithArgs("cred-id", int64(2), "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.UpdatePassword(ctx, "cred-id", 2, "new-hash")
		assert.ErrorIs(t, err, autherror.ErrWriteConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewCredentialRepository(mock)
	ctx := context.Background()

	t.Run("record", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_attempts").
			WithArgs("a@x.com", "1.2.3.4", false).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.RecordLoginAttempt(ctx, "a@x.com", "1.2.3.4", false))
	})

	t.Run("count recent failures", func(t *testing.T) {
		mock.ExpectQuery("SELECT count").
			WithArgs("a@x.com", "1.2.3.4", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

		count, err := r.CountRecentFailedAttempts(ctx, "a@x.com", "1.2.3.4", 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
