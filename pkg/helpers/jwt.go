package helpers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrEmptySecret          = errors.New("empty signing secret")
)

// defaultTokenTTL applies when a TokenManager is built with a non-positive ttl.
const defaultTokenTTL = 30 * time.Minute

// Claims is the closed claim set carried by access tokens: subject, expiry, issued-at.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed access tokens.
// It is immutable after construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// TTL returns the default lifetime used by Issue.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject that expires after the configured ttl.
func (m *TokenManager) Issue(subject string) (string, time.Time, error) {
	return m.IssueWithTTL(subject, m.ttl)
}

// IssueWithTTL signs a token for subject expiring at now+ttl. A ttl of zero or
// less yields a token that is already expired. The exp claim has whole-second
// precision, so a positive ttl is rounded up to the next second; the returned
// time is the one carried by the token.
func (m *TokenManager) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := expiry(now, ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	s, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	whole := exp.Truncate(time.Second)
	if ttl > 0 && whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return whole
}

// Verify checks signature, algorithm and expiry and returns the subject.
// Every failure wraps ErrInvalidToken.
func (m *TokenManager) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
