// Package auth mints and verifies the HS256 bearer tokens of the calendar API.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer  = "company-calendar"
	keyInfo = "company-calendar bearer signing key v1"
	keySize = 32

	// MinSecretLength is the shortest accepted configured secret.
	MinSecretLength = 16
)

var (
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrWeakSecret is returned when the configured secret is too short.
	ErrWeakSecret = errors.New("auth: secret too short")
)

// Identity is the authenticated member a token speaks for.
type Identity struct {
	UserID    string
	CompanyID string
}

// Claims is the token payload: sub holds the user id, cid the company id.
type Claims struct {
	CompanyID string `json:"cid"`
	jwt.RegisteredClaims
}

// DeriveKey stretches the configured secret into the HMAC signing key.
func DeriveKey(secret string) ([]byte, error) {
	if len(strings.TrimSpace(secret)) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(issuer), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("auth: derive key: %w", err)
	}
	return key, nil
}

// Issuer signs and verifies tokens with a derived key.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer derives the signing key from secret. ttl defaults to 12h.
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{key: key, ttl: ttl, now: now}, nil
}

// Issue mints a token for id and reports when it expires.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	if strings.TrimSpace(id.UserID) == "" || strings.TrimSpace(id.CompanyID) == "" {
		return "", time.Time{}, errors.New("auth: user and company are required")
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		CompanyID: id.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses token and returns the identity it carries.
func (i *Issuer) Verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return Identity{}, fmt.Errorf("%w: missing sub or cid", ErrInvalidToken)
	}
	return Identity{UserID: claims.Subject, CompanyID: claims.CompanyID}, nil
}
