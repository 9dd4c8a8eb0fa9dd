package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
)

// Claims are the registered claims carried by an identity token. Subject
// holds the identity id.
type Claims struct {
	jwt.RegisteredClaims
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenCodec issues and verifies HS256 identity tokens. It holds no mutable
// state after construction and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type TokenCodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

func WithTTL(ttl time.Duration) TokenCodecOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewTokenCodec(secret, issuer string, opts ...TokenCodecOption) *TokenCodec {
	c := &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for identityID that expires TTL after now.
func (c *TokenCodec) Issue(identityID string) (string, time.Time, error) {
	if strings.TrimSpace(identityID) == "" {
		return "", time.Time{}, fmt.Errorf("issue token: empty identity id")
	}
	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify returns the identity id for a valid token. Failures are always one
// of ErrTokenMalformed, ErrTokenBadSignature or ErrTokenExpired.
func (c *TokenCodec) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", classifyTokenError(token, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

func classifyTokenError(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		if decodesHeaderAndClaims(token) {
			return ErrTokenBadSignature
		}
		return ErrTokenMalformed
	default:
		return ErrTokenMalformed
	}
}

// decodesHeaderAndClaims reports whether the first two segments are strict
// base64url JSON objects. The signature segment is not inspected.
func decodesHeaderAndClaims(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	p := jwt.NewParser(jwt.WithStrictDecoding())
	for _, seg := range parts[:2] {
		raw, err := p.DecodeSegment(seg)
		if err != nil {
			return false
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return false
		}
	}
	return true
}
