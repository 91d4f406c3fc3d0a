package services

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/Lurelab/internal/models"
)

type authStubStore struct {
	nextID   int64
	accounts map[string]*models.Account
	progress map[int64]*models.Progress
	updates  int
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{
		accounts: map[string]*models.Account{},
		progress: map[int64]*models.Progress{},
	}
}

func (s *authStubStore) FindAccountByEmail(email string) (*models.Account, error) {
	if a, ok := s.accounts[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *authStubStore) InsertAccount(a *models.Account) (*models.Account, error) {
	s.nextID++
	cp := *a
	cp.ID = s.nextID
	s.accounts[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (s *authStubStore) FindProgressBySessionID(sessionID string) (*models.Progress, error) {
	for _, p := range s.progress {
		if p.SessionID == sessionID && sessionID != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *authStubStore) FindProgressByUserID(userID int64) (*models.Progress, error) {
	for _, p := range s.progress {
		if p.UserID == userID && userID != 0 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *authStubStore) UpdateProgress(p *models.Progress) error {
	s.updates++
	cp := *p
	s.progress[p.ID] = &cp
	return nil
}

func (s *authStubStore) addProgress(p models.Progress) {
	s.progress[p.ID] = &p
}

func newAuthFixture() (*AuthService, *authStubStore, *TokenCodec) {
	store := newAuthStubStore()
	tokens := NewTokenCodec("test-secret")
	return NewAuthService(store, tokens), store, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, tokens := newAuthFixture()

	res, err := svc.Register("  User@Example.COM ", "Secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Account.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", res.Account.Email)
	}
	if uid, ok := tokens.Verify(res.Token); !ok || uid != res.Account.ID {
		t.Fatalf("register should issue a valid token for the new account")
	}
	if store.accounts["user@example.com"].PasswordHash == "Secret123" {
		t.Fatalf("password stored in plaintext")
	}

	if _, err := svc.Register("user@example.com", "Secret123"); err == nil {
		t.Fatalf("duplicate email should conflict")
	} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	login, err := svc.Login("USER@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if uid, ok := tokens.Verify(login.Token); !ok || uid != res.Account.ID {
		t.Fatalf("login token does not verify to the account")
	}

	if _, err := svc.Login("user@example.com", "wrong-password"); err == nil {
		t.Fatalf("wrong password should fail")
	}
	if _, err := svc.Login("missing@example.com", "Secret123"); err == nil {
		t.Fatalf("unknown email should fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture()
	cases := []struct {
		name, email, password string
	}{
		{"empty email", "", "Secret123"},
		{"bad email", "not-an-email", "Secret123"},
		{"short password", "a@b.co", "short"},
		{"oversized password", "a@b.co", strings.Repeat("x", 73)},
	}
	for _, c := range cases {
		if _, err := svc.Register(c.email, c.password); err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
			t.Fatalf("%s: expected invalid, got %v", c.name, err)
		}
	}
}

func TestLoginDoesNotRevealWhichFieldWasWrong(t *testing.T) {
	svc, store, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	store.accounts["user@example.com"] = &models.Account{ID: 1, Email: "user@example.com", PasswordHash: string(hash)}

	_, errBadPassword := svc.Login("user@example.com", "nope-nope-nope")
	_, errUnknownUser := svc.Login("ghost@example.com", "Secret123")
	if errBadPassword == nil || errUnknownUser == nil {
		t.Fatalf("both logins should fail")
	}
	if errBadPassword.Error() != errUnknownUser.Error() {
		t.Fatalf("error messages differ: %q vs %q", errBadPassword, errUnknownUser)
	}
}

func TestMigrateGuestProgress(t *testing.T) {
	svc, store, _ := newAuthFixture()
	store.addProgress(models.Progress{ID: 1, SessionID: "sid-guest", RiskScore: 60, TotalAttempted: 4, CorrectCount: 1})

	if err := svc.MigrateGuestProgress("sid-guest", 7); err != nil {
		t.Fatalf("MigrateGuestProgress: %v", err)
	}
	migrated, _ := store.FindProgressByUserID(7)
	if migrated == nil {
		t.Fatalf("account should own the migrated row")
	}
	if migrated.SessionID != "" {
		t.Fatalf("migration must clear session_id, got %q", migrated.SessionID)
	}
	if migrated.TotalAttempted != 4 || migrated.RiskScore != 60 {
		t.Fatalf("migration must keep counters: %+v", migrated)
	}
	if orphan, _ := store.FindProgressBySessionID("sid-guest"); orphan != nil {
		t.Fatalf("guest session should no longer own a row")
	}

	// A second registration reusing the same guest cookie: the row is already
	// account-owned, so nothing happens.
	updatesBefore := store.updates
	if err := svc.MigrateGuestProgress("sid-guest", 8); err != nil {
		t.Fatalf("repeat migration: %v", err)
	}
	if store.updates != updatesBefore {
		t.Fatalf("repeat migration must be a no-op")
	}
	if p, _ := store.FindProgressByUserID(8); p != nil {
		t.Fatalf("second account must not steal the migrated row")
	}
}

// When the account already owns a progress row, the guest's history is
// abandoned silently rather than merged. Accepted product behavior, not a bug.
func TestMigrateGuestProgressAccountAlreadyHasProgress(t *testing.T) {
	svc, store, _ := newAuthFixture()
	store.addProgress(models.Progress{ID: 1, SessionID: "sid-guest", TotalAttempted: 4})
	store.addProgress(models.Progress{ID: 2, UserID: 7, TotalAttempted: 9})

	if err := svc.MigrateGuestProgress("sid-guest", 7); err != nil {
		t.Fatalf("MigrateGuestProgress: %v", err)
	}
	owned, _ := store.FindProgressByUserID(7)
	if owned.ID != 2 || owned.TotalAttempted != 9 {
		t.Fatalf("account row must be untouched: %+v", owned)
	}
	guest, _ := store.FindProgressBySessionID("sid-guest")
	if guest == nil || guest.ID != 1 {
		t.Fatalf("guest row should remain, abandoned: %+v", guest)
	}
	if store.updates != 0 {
		t.Fatalf("no update should happen when the account already owns a row")
	}
}

func TestMigrateGuestProgressMissingGuestRow(t *testing.T) {
	svc, store, _ := newAuthFixture()
	if err := svc.MigrateGuestProgress("never-seen", 7); err != nil {
		t.Fatalf("missing guest row must be a no-op, got %v", err)
	}
	if store.updates != 0 {
		t.Fatalf("no update expected")
	}
	if err := svc.MigrateGuestProgress("", 7); err != nil {
		t.Fatalf("empty session id must be a no-op, got %v", err)
	}
}
