package services

import (
	"errors"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 7 * 24 * time.Hour

// Claims is the payload of a session token. Subject carries the account id.
type Claims struct {
	Email       string             `json:"email"`
	AccountType models.AccountType `json:"accountType"`
	jwt.RegisteredClaims
}

// AccountID returns the hex id of the account the session belongs to.
func (c *Claims) AccountID() string {
	return c.Subject
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewSessionIssuer creates an issuer signing with secret. A nil now uses time.Now.
func NewSessionIssuer(secret string, now func() time.Time) *SessionIssuer {
	if now == nil {
		now = time.Now
	}
	return &SessionIssuer{secret: []byte(secret), now: now}
}

// Issue returns a signed token for account along with its expiry.
func (s *SessionIssuer) Issue(account *models.Account) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(SessionTTL)

	claims := Claims{
		Email:       account.Email,
		AccountType: account.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm and expiry. Every failure maps to ErrInvalidSession.
func (s *SessionIssuer) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingSession
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if claims.Subject == "" || !claims.AccountType.Valid() {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
