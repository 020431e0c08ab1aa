package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/tekriders/auth-service/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetTokenBytes = 32

type TokenGenerator interface {
	Generate(userID, email, phone, role string) (string, time.Time, error)
	Verify(tokenString string) (*SessionClaims, error)
	GetSessionExpiry() time.Duration
}

// TokenService signs and verifies stateless session tokens. Validity is
// determined purely by signature and expiry, never by a lookup.
type TokenService struct {
	Secret        string
	SessionExpiry time.Duration
}

type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
}

func NewTokenService(secret string, expiryHours int) *TokenService {
	return &TokenService{
		Secret:        secret,
		SessionExpiry: time.Duration(expiryHours) * time.Hour,
	}
}

func (ts *TokenService) Generate(userID, email, phone, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.SessionExpiry)

	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		Phone:  phone,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Verify parses and validates the given session token string.
func (ts *TokenService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

func (ts *TokenService) GetSessionExpiry() time.Duration {
	return ts.SessionExpiry
}

// NewResetToken returns a hex-encoded 256-bit random token.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
