package services

import (
	"github.com/google/uuid"

	"github.com/soaringjerry/Lurelab/internal/models"
)

type IdentityKind int

const (
	IdentityGuest IdentityKind = iota
	IdentityAccount
)

// Identity is the per-request answer to "who is this": a registered account
// or an anonymous guest keyed by its session cookie value. Exactly one of
// UserID/SessionID is meaningful, selected by Kind.
type Identity struct {
	Kind      IdentityKind
	UserID    int64  // IdentityAccount
	SessionID string // IdentityGuest
}

func GuestIdentity(sessionID string) Identity {
	return Identity{Kind: IdentityGuest, SessionID: sessionID}
}

func AccountIdentity(userID int64) Identity {
	return Identity{Kind: IdentityAccount, UserID: userID}
}

// AccountFinder is the slice of storage the resolver needs.
type AccountFinder interface {
	FindAccountByID(id int64) (*models.Account, error)
}

// IdentityResolver turns request-presented cookie values into an Identity.
type IdentityResolver struct {
	store        AccountFinder
	tokens       *TokenCodec
	newSessionID func() string
}

func NewIdentityResolver(store AccountFinder, tokens *TokenCodec) *IdentityResolver {
	return &IdentityResolver{
		store:        store,
		tokens:       tokens,
		newSessionID: uuid.NewString,
	}
}

// Resolve decides the caller's identity from the two cookie values (either
// may be empty). Auth-cookie failures — forged, expired, or a token whose
// account no longer exists — fall through to guest resolution instead of
// erroring: an expired login quietly degrades to an anonymous session. Only a
// storage failure is surfaced. The caller is responsible for setting a fresh
// SessionID as a cookie on the response; the resolver only picks the value.
func (r *IdentityResolver) Resolve(authCookie, guestCookie string) (Identity, error) {
	if authCookie != "" {
		if uid, ok := r.tokens.Verify(authCookie); ok {
			acct, err := r.store.FindAccountByID(uid)
			if err != nil {
				return Identity{}, err
			}
			if acct != nil {
				return AccountIdentity(acct.ID), nil
			}
		}
	}
	if guestCookie != "" {
		return GuestIdentity(guestCookie), nil
	}
	return GuestIdentity(r.newSessionID()), nil
}
