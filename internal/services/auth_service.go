package services

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/Lurelab/internal/models"
)

// Practical email shape check; deliverability is not our problem.
var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordChars = 8
	// bcrypt ignores everything past 72 bytes, so longer inputs are rejected
	// instead of silently truncated.
	maxPasswordBytes = 72
)

// AuthStore abstracts the persistence operations for registration, login and
// guest-progress migration.
type AuthStore interface {
	FindAccountByEmail(email string) (*models.Account, error)
	InsertAccount(a *models.Account) (*models.Account, error)
	FindProgressBySessionID(sessionID string) (*models.Progress, error)
	FindProgressByUserID(userID int64) (*models.Progress, error)
	UpdateProgress(p *models.Progress) error
}

type AuthResult struct {
	Token   string
	Account *models.Account
}

// AuthService registers and authenticates accounts and performs the one-shot
// guest-to-account progress migration at registration time.
type AuthService struct {
	store  AuthStore
	tokens *TokenCodec
	now    func() time.Time
}

func NewAuthService(store AuthStore, tokens *TokenCodec) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a freshly issued session token.
func (s *AuthService) Register(email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || !emailRE.MatchString(email) {
		return nil, NewInvalidError("invalid email")
	}
	if len([]rune(password)) < minPasswordChars {
		return nil, NewInvalidError("password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return nil, NewInvalidError("password too long")
	}
	existing, err := s.store.FindAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acct, err := s.store.InsertAccount(&models.Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: s.tokens.Issue(acct.ID), Account: acct}, nil
}

// Login verifies credentials and returns a freshly issued session token.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	acct, err := s.store.FindAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return &AuthResult{Token: s.tokens.Issue(acct.ID), Account: acct}, nil
}

// MigrateGuestProgress re-keys the guest's progress row under accountID, in
// one update that sets user_id and clears session_id. It no-ops when the
// guest has no row, and also when the account already owns one: in that case
// the guest progress is abandoned rather than merged, since two live score
// histories have no meaningful merge. Calling it again after a successful
// migration is therefore a no-op too (the row is no longer session-owned).
func (s *AuthService) MigrateGuestProgress(guestSessionID string, accountID int64) error {
	if guestSessionID == "" {
		return nil
	}
	owned, err := s.store.FindProgressByUserID(accountID)
	if err != nil {
		return err
	}
	if owned != nil {
		return nil
	}
	p, err := s.store.FindProgressBySessionID(guestSessionID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	p.UserID = accountID
	p.SessionID = ""
	return s.store.UpdateProgress(p)
}
