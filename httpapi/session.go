package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quillauth/quillauth"
)

// SessionIssuer establishes a session for an authenticated identity. Issue
// may set cookies on w; the returned token, if any, is echoed in the JSON
// response for bearer-style clients.
type SessionIssuer interface {
	Issue(w http.ResponseWriter, r *http.Request, id uuid.UUID, email string, method quillauth.LoginMethod) (string, error)
}

// SessionClaims is the JWT payload issued on login and email verification.
type SessionClaims struct {
	Email  string `json:"email"`
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 session tokens. Configure once and treat as
// immutable.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

var errJWTSecretTooShort = errors.New("jwt secret must be at least 32 bytes")

// NewJWTIssuer builds an issuer. The secret must be at least 32 bytes.
func NewJWTIssuer(secret []byte, ttl time.Duration, issuer string) (*JWTIssuer, error) {
	if len(secret) < 32 {
		return nil, errJWTSecretTooShort
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTIssuer{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}, nil
}

func (j *JWTIssuer) Issue(_ http.ResponseWriter, _ *http.Request, id uuid.UUID, email string, method quillauth.LoginMethod) (string, error) {
	now := j.now()
	claims := SessionClaims{
		Email:  email,
		Method: string(method),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("session token signing failed: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token previously produced by Issue.
func (j *JWTIssuer) Verify(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Method.Alg())
			}
			return j.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return j.now() }),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
