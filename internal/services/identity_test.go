package services

import (
	"testing"
	"time"

	"github.com/soaringjerry/Lurelab/internal/models"
)

type accountStubStore struct {
	accounts map[int64]*models.Account
}

func (s *accountStubStore) FindAccountByID(id int64) (*models.Account, error) {
	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func newIdentityFixture() (*IdentityResolver, *TokenCodec, *accountStubStore) {
	store := &accountStubStore{accounts: map[int64]*models.Account{
		42: {ID: 42, Email: "user@example.com"},
	}}
	tokens := NewTokenCodec("test-secret")
	resolver := NewIdentityResolver(store, tokens)
	return resolver, tokens, store
}

func TestResolveValidTokenIsAccount(t *testing.T) {
	resolver, tokens, _ := newIdentityFixture()
	id, err := resolver.Resolve(tokens.Issue(42), "guest-cookie")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id.Kind != IdentityAccount || id.UserID != 42 {
		t.Fatalf("expected account 42, got %+v", id)
	}
}

// Forged, expired and dangling tokens all degrade to guest. This fail-open
// behavior is deliberate: an expired login becomes an anonymous session
// instead of an error page.
func TestResolveBadTokensFallThroughToGuest(t *testing.T) {
	resolver, tokens, _ := newIdentityFixture()

	expired := NewTokenCodec("test-secret")
	expired.now = fixedClock(time.Now().Add(-TokenMaxAge - time.Hour))

	cases := map[string]string{
		"forged":      "AAAAforgedAAAA",
		"expired":     expired.Issue(42),
		"dangling id": tokens.Issue(9999), // verifies, but no such account
	}
	for name, authCookie := range cases {
		id, err := resolver.Resolve(authCookie, "guest-123")
		if err != nil {
			t.Fatalf("%s: Resolve returned error: %v", name, err)
		}
		if id.Kind != IdentityGuest || id.SessionID != "guest-123" {
			t.Fatalf("%s: expected guest-123, got %+v", name, id)
		}
	}
}

func TestResolveKeepsExistingGuestCookie(t *testing.T) {
	resolver, _, _ := newIdentityFixture()
	id, err := resolver.Resolve("", "guest-abc")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id.Kind != IdentityGuest || id.SessionID != "guest-abc" {
		t.Fatalf("expected continuing guest, got %+v", id)
	}
}

func TestResolveNewGuestGetsFreshSessionID(t *testing.T) {
	resolver, _, _ := newIdentityFixture()
	resolver.newSessionID = func() string { return "fresh-session" }
	id, err := resolver.Resolve("", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if id.Kind != IdentityGuest || id.SessionID != "fresh-session" {
		t.Fatalf("expected new guest with generated id, got %+v", id)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	resolver, tokens, _ := newIdentityFixture()
	auth := tokens.Issue(42)

	first, err := resolver.Resolve(auth, "guest-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	second, err := resolver.Resolve(auth, "guest-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if first != second {
		t.Fatalf("same cookies resolved differently: %+v vs %+v", first, second)
	}

	g1, _ := resolver.Resolve("", "guest-2")
	g2, _ := resolver.Resolve("", "guest-2")
	if g1 != g2 {
		t.Fatalf("same guest cookie resolved differently: %+v vs %+v", g1, g2)
	}
}
