package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCodec(clock *fakeClock) *TokenCodec {
	return NewTokenCodec(testSecret, "movie-catalog-test", WithClock(clock.Now))
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	token, expiresAt, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := clock.now.Add(24 * time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiresAt)
	}

	for _, offset := range []time.Duration{0, time.Hour, 24*time.Hour - time.Second} {
		clock.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(offset)
		id, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("verify at +%s: %v", offset, err)
		}
		if id != "user-1" {
			t.Fatalf("expected user-1, got %q", id)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: issuedAt}
	codec := newTestCodec(clock)
	token, _, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, offset := range []time.Duration{24 * time.Hour, 24*time.Hour + time.Second, 30 * 24 * time.Hour} {
		clock.now = issuedAt.Add(offset)
		if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired at +%s, got %v", offset, err)
		}
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	codec := NewTokenCodec(testSecret, "movie-catalog-test")
	token, _, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sigStart := strings.LastIndex(token, ".") + 1
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_!"

	for pos := sigStart; pos < len(token); pos++ {
		for _, c := range []byte(alphabet) {
			if token[pos] == c {
				continue
			}
			b := []byte(token)
			b[pos] = c
			if id, err := codec.Verify(string(b)); !errors.Is(err, ErrTokenBadSignature) {
				t.Fatalf("signature offset %d set to %q: expected ErrTokenBadSignature, got id=%q err=%v", pos-sigStart, c, id, err)
			}
		}
	}
}

func TestVerifyCorruptClaimsIsMalformed(t *testing.T) {
	codec := NewTokenCodec(testSecret, "movie-catalog-test")
	token, _, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	corrupt := parts[0] + ".!" + parts[1][1:] + "." + parts[2]
	if _, err := codec.Verify(corrupt); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := NewTokenCodec(testSecret, "a").Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewTokenCodec("fedcba9876543210fedcba9876543210", "a")
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewTokenCodec(testSecret, "a")
	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c", "%%%.%%%.%%%"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("input %q: expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenCodec(testSecret, "a").Verify(token); !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature, got %v", err)
	}
}

func TestVerifyRequiresSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenCodec(testSecret, "a").Verify(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)
	first, _, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _, err := codec.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for the same identity and instant")
	}
}
