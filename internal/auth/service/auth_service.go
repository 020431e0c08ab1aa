package service

//go:generate mockgen -destination=../../mocks/mock_credential_repository.go -package=mocks github.com/tekriders/auth-service/internal/auth/domain CredentialRepository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/bcrypt"

	"github.com/tekriders/auth-service/config"
	"github.com/tekriders/auth-service/internal/auth/domain"
	"github.com/tekriders/auth-service/internal/auth/dto"
	autherror "github.com/tekriders/auth-service/internal/errors"
	"github.com/tekriders/auth-service/internal/logger"
	"github.com/tekriders/auth-service/internal/mailer"
	"github.com/tekriders/auth-service/pkg/constant"
)

// maxWriteRetries bounds re-reads after a revision conflict; 3 attempts total.
const maxWriteRetries = 2

type AuthService struct {
	repo         domain.CredentialRepository
	tokenService TokenGenerator
	mail         mailer.Dispatcher
	cfg          *config.Config
	log          *logger.Logger
}

func NewAuthService(repo domain.CredentialRepository, tokenService TokenGenerator,
	mail mailer.Dispatcher, cfg *config.Config, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenService: tokenService,
		mail:         mail,
		cfg:          cfg,
		log:          log,
	}
}

// NormalizeEmail trims and lowercases an email identifier. Applied on every
// read and write path so lookups and uniqueness operate on canonical forms.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips formatting characters from a phone identifier.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

func (s *AuthService) Register(ctx context.Context, input dto.RegisterInput) (*domain.Credential, error) {
	email := NormalizeEmail(input.Email)
	phone := NormalizePhone(input.Phone)

	if email == "" && phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", autherror.ErrInvalidInput)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", autherror.ErrInvalidInput)
	}
	if input.Role != constant.RoleStudent && input.Role != constant.RoleInstructor {
		return nil, fmt.Errorf("%w: role must be %s or %s", autherror.ErrInvalidInput,
			constant.RoleStudent, constant.RoleInstructor)
	}

	if email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, autherror.ErrEmailAlreadyInUse
		}
	}

	if phone != "" {
		existing, err := s.repo.GetByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, autherror.ErrPhoneAlreadyInUse
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cred := &domain.Credential{
		ID:           uuid.New().String(),
		Revision:     1,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashed),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, err
	}

	return cred, nil
}

func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error) {
	if input.Identifier == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", autherror.ErrInvalidInput)
	}

	identifier, err := s.normalizeIdentifier(input.Identifier, input.IdentifierType)
	if err != nil {
		return nil, err
	}

	window := time.Duration(s.cfg.LoginAttemptWindowMin) * time.Minute
	failed, err := s.repo.CountRecentFailedAttempts(ctx, identifier, input.IPAddress, window)
	if err != nil {
		return nil, fmt.Errorf("failed to check login attempts: %w", err)
	}
	if failed >= s.cfg.LoginMaxAttempts {
		return nil, autherror.ErrTooManyLoginAttempts
	}

	cred, err := s.getByIdentifier(ctx, identifier, input.IdentifierType)
	if err != nil {
		return nil, err
	}

	// Unknown identifier and wrong password take the same path so the caller
	// cannot tell them apart.
	if cred == nil || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(input.Password)) != nil {
		if err := s.repo.RecordLoginAttempt(ctx, identifier, input.IPAddress, false); err != nil {
			s.log.Warn("failed to record login attempt", "error", err)
		}
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.repo.RecordLoginAttempt(ctx, identifier, input.IPAddress, true); err != nil {
		s.log.Warn("failed to record login attempt", "error", err)
	}

	return s.issueSession(cred)
}

// ForgotPassword issues a reset token and mails the reset link. The outcome
// is identical whether or not the identifier exists, so callers cannot probe
// for registered accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, input dto.ForgotPasswordInput) error {
	if input.Identifier == "" {
		return fmt.Errorf("%w: identifier is required", autherror.ErrInvalidInput)
	}

	identifier, err := s.normalizeIdentifier(input.Identifier, input.IdentifierType)
	if err != nil {
		return err
	}

	cred, err := s.getByIdentifier(ctx, identifier, input.IdentifierType)
	if err != nil {
		return err
	}
	if cred == nil {
		return nil
	}

	token, err := NewResetToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(time.Duration(s.cfg.ResetTokenTTLMin) * time.Minute)

	err = s.withWriteRetry(ctx, func(ctx context.Context) error {
		if err := s.repo.SetResetToken(ctx, cred.ID, cred.Revision, token, expiry); err != nil {
			if errors.Is(err, autherror.ErrWriteConflict) {
				fresh, lerr := s.getByIdentifier(ctx, identifier, input.IdentifierType)
				if lerr != nil {
					return lerr
				}
				if fresh == nil {
					return err
				}
				cred = fresh
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cred.Email == "" {
		// Phone-only account; the token is persisted but there is no address
		// to deliver it to. Support flows handle these out of band.
		s.log.Warn("reset token issued for credential without email", "id", cred.ID)
		return nil
	}

	subject, body := mailer.ResetEmail(s.cfg.ResetBaseURL, cred.Email, token)
	if err := s.mail.Send(ctx, cred.Email, subject, body); err != nil {
		// The token stays persisted; re-submitting forgot-password overwrites it.
		return fmt.Errorf("%w: %v", autherror.ErrMailDelivery, err)
	}

	return nil
}

// ResetPassword exchanges a pending reset token for a new password. Absent,
// expired, mismatched and already-consumed tokens are indistinguishable to
// the caller. The hash update and the token clear are one compare-and-swap
// write, so a token can be consumed at most once.
func (s *AuthService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Token == "" || input.Password == "" {
		return fmt.Errorf("%w: email, token and password are required", autherror.ErrInvalidInput)
	}

	return s.withWriteRetry(ctx, func(ctx context.Context) error {
		cred, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if cred == nil || !cred.HasPendingReset(time.Now()) ||
			subtle.ConstantTimeCompare([]byte(cred.ResetToken), []byte(input.Token)) != 1 {
			return autherror.ErrInvalidResetToken
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
		if err != nil {
			return err
		}

		if err := s.repo.UpdatePassword(ctx, cred.ID, cred.Revision, string(hashed)); err != nil {
			if errors.Is(err, autherror.ErrWriteConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// LoginWithVerifiedIdentity signs in an identity already verified by an
// external provider, creating the credential on first sight. The generated
// password is random and unusable; such accounts authenticate through the
// provider until they complete a password reset.
func (s *AuthService) LoginWithVerifiedIdentity(ctx context.Context, identity domain.VerifiedIdentity) (*dto.LoginResponse, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: verified identity has no email", autherror.ErrInvalidInput)
	}

	cred, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if cred == nil {
		placeholder, err := NewResetToken()
		if err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(placeholder), s.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		cred = &domain.Credential{
			ID:           uuid.New().String(),
			Revision:     1,
			Email:        email,
			PasswordHash: string(hashed),
			Role:         constant.RoleStudent,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Create(ctx, cred); err != nil {
			return nil, err
		}
	}

	return s.issueSession(cred)
}

func (s *AuthService) issueSession(cred *domain.Credential) (*dto.LoginResponse, error) {
	token, _, err := s.tokenService.Generate(cred.ID, cred.Email, cred.Phone, cred.Role)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     token,
		TokenType: constant.DefaultTokenType,
		ExpiresIn: int(s.tokenService.GetSessionExpiry().Seconds()),
		User: dto.UserOutput{
			Email: cred.Email,
			Phone: cred.Phone,
			Role:  cred.Role,
		},
	}, nil
}

func (s *AuthService) normalizeIdentifier(identifier, identifierType string) (string, error) {
	switch identifierType {
	case constant.IdentifierEmail:
		return NormalizeEmail(identifier), nil
	case constant.IdentifierPhone:
		return NormalizePhone(identifier), nil
	default:
		return "", fmt.Errorf("%w: identifierType must be %s or %s", autherror.ErrInvalidInput,
			constant.IdentifierEmail, constant.IdentifierPhone)
	}
}

func (s *AuthService) getByIdentifier(ctx context.Context, identifier, identifierType string) (*domain.Credential, error) {
	if identifierType == constant.IdentifierPhone {
		return s.repo.GetByPhone(ctx, identifier)
	}

	return s.repo.GetByEmail(ctx, identifier)
}

func (s *AuthService) withWriteRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(maxWriteRetries, retry.NewConstant(10*time.Millisecond))

	return retry.Do(ctx, backoff, fn)
}
