package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for any username/password mismatch.
var ErrBadCredentials = errors.New("bad credentials")

const tokenTTL = 24 * time.Hour

// CredentialVerifier checks a single configured admin credential and issues
// HS256 bearer tokens. The hash is bcrypt, supplied via configuration.
type CredentialVerifier struct {
	User   string
	Hash   string
	Secret []byte
}

// Enabled reports whether a credential has been configured.
func (c CredentialVerifier) Enabled() bool {
	return c.User != "" && c.Hash != ""
}

// IssueToken verifies the credential and returns a signed admin token.
func (c CredentialVerifier) IssueToken(user, password string) (string, error) {
	if !c.Enabled() || user != c.User {
		return "", ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) != nil {
		return "", ErrBadCredentials
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Role: "admin",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
