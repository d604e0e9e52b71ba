// Copyright 2025 LexiAssist Backend Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package auth issues and verifies the session tokens carried in the
// lexiassist_session cookie and hashes account passwords.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie carrying the JWT.
const CookieName = "lexiassist_session"

// DefaultTokenTTL is used when no expiry is configured.
const DefaultTokenTTL = 60 * time.Minute

// ErrInvalidToken covers every token verification failure: bad signature,
// malformed token, expired claims, missing subject.
var ErrInvalidToken = errors.New("invalid or expired token")

const specialChars = `!@#$%^&*()-_=+[]{};:,.<>/?\|`

// Manager signs and verifies session tokens.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewManager creates a token manager. ttl <= 0 selects DefaultTokenTTL.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{secret: []byte(secret), tokenTTL: ttl}
}

// TokenTTL reports the configured token lifetime, which is also the cookie
// max-age.
func (m *Manager) TokenTTL() time.Duration {
	return m.tokenTTL
}

// IssueToken signs a session token for the given parent id.
func (m *Manager) IssueToken(parentID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   parentID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns the parent id it was
// issued for.
func (m *Manager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks the account password policy and returns one message
// per unmet requirement. An empty slice means the password is acceptable.
func ValidatePassword(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "minimum length is 8")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		errs = append(errs, "must contain an uppercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		errs = append(errs, "must contain a number")
	}
	if !strings.ContainsAny(password, specialChars) {
		errs = append(errs, "must contain a special character")
	}
	return errs
}

// GeneratePassword produces a random password that satisfies the policy, for
// registrations that arrive without one.
func GeneratePassword() (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
	const length = 12

	for {
		var b strings.Builder
		b.Grow(length)
		for i := 0; i < length; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", fmt.Errorf("failed to generate password: %w", err)
			}
			b.WriteByte(alphabet[n.Int64()])
		}
		password := b.String()
		if len(ValidatePassword(password)) == 0 {
			return password, nil
		}
	}
}
