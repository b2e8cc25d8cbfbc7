package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// SessionTokens issues and verifies HS256 session tokens for game clients.
type SessionTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret, issuer string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether a signing secret is configured.
func (s *SessionTokens) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *SessionTokens) Issue(subject string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("session tokens are not configured")
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and issuer and returns the token subject.
func (s *SessionTokens) Verify(tokenString string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("session tokens are not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionTokenInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrSessionTokenInvalid
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return "", fmt.Errorf("%w: wrong issuer", ErrSessionTokenInvalid)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrSessionTokenInvalid)
	}
	return sub, nil
}
