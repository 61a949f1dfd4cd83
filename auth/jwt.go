// Package auth issues and verifies the application's JWT tokens.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/config"
	"inkwell/domain"
)

// Token purposes. A session token never opens the password reset flow
// and a reset token never authenticates a request.
const (
	purposeSession = "session"
	purposeReset   = "password_reset"
)

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses HMAC tokens for sessions and password
// resets. Reset tokens are deliberately short-lived.
type TokenManager struct {
	secret        []byte
	sessionTTL    time.Duration
	resetTokenTTL time.Duration
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:        []byte(cfg.JWTSecret),
		sessionTTL:    cfg.SessionTTL,
		resetTokenTTL: cfg.ResetTokenTTL,
	}
}

func (m *TokenManager) IssueSession(userID int64) (string, error) {
	return m.issue(userID, purposeSession, m.sessionTTL)
}

func (m *TokenManager) IssueReset(userID int64) (string, error) {
	return m.issue(userID, purposeReset, m.resetTokenTTL)
}

// ParseSession returns the authenticated user identifier.
func (m *TokenManager) ParseSession(token string) (int64, error) {
	return m.parse(token, purposeSession)
}

// ParseReset returns the user identifier the reset token was issued to.
func (m *TokenManager) ParseReset(token string) (int64, error) {
	return m.parse(token, purposeReset)
}

func (m *TokenManager) issue(userID int64, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) parse(tokenString, purpose string) (int64, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidCredentials
	}
	if c.Purpose != purpose {
		return 0, domain.ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, domain.ErrInvalidCredentials
	}
	return userID, nil
}
