package services

import (
	"encoding/base64"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTokenRoundTrip(t *testing.T) {
	c := NewTokenCodec("test-secret")
	token := c.Issue(42)
	uid, ok := c.Verify(token)
	if !ok {
		t.Fatalf("freshly issued token should verify")
	}
	if uid != 42 {
		t.Fatalf("got uid %d, want 42", uid)
	}
}

func TestTokenExpiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTokenCodec("test-secret")
	c.now = fixedClock(issuedAt)
	token := c.Issue(7)

	c.now = fixedClock(issuedAt.Add(TokenMaxAge - time.Second))
	if _, ok := c.Verify(token); !ok {
		t.Fatalf("token just inside the window should verify")
	}

	c.now = fixedClock(issuedAt.Add(TokenMaxAge + time.Second))
	if _, ok := c.Verify(token); ok {
		t.Fatalf("token past the 14-day window should be rejected")
	}
}

func TestTokenTampering(t *testing.T) {
	c := NewTokenCodec("test-secret")
	token := c.Issue(42)
	for i := range token {
		altered := []byte(token)
		if altered[i] == 'A' {
			altered[i] = 'B'
		} else {
			altered[i] = 'A'
		}
		if _, ok := c.Verify(string(altered)); ok {
			t.Fatalf("token altered at position %d should be rejected", i)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenCodec("secret-a")
	verifier := NewTokenCodec("secret-b")
	if _, ok := verifier.Verify(issuer.Issue(1)); ok {
		t.Fatalf("token signed under a different secret should be rejected")
	}
}

func TestTokenMalformed(t *testing.T) {
	c := NewTokenCodec("test-secret")
	cases := []string{
		"",
		"not base64 !!",
		"c2hvcnQ", // valid base64, shorter than one MAC tag
	}
	for _, tok := range cases {
		if _, ok := c.Verify(tok); ok {
			t.Fatalf("malformed token %q should be rejected", tok)
		}
	}
}

func TestTokenBadPayload(t *testing.T) {
	c := NewTokenCodec("test-secret")
	// Correctly signed tokens whose payloads cannot resolve to a user id.
	payloads := []string{"no-separator", "abc:123", "0:123", "-5:123", "42:notatime"}
	for _, payload := range payloads {
		raw := append([]byte(payload), c.sign([]byte(payload))...)
		token := base64.RawURLEncoding.EncodeToString(raw)
		if _, ok := c.Verify(token); ok {
			t.Fatalf("payload %q should be rejected", payload)
		}
	}
}
