package models

import "time"

// Account is a registered identity. Guests have no Account row.
type Account struct {
	ID           int64
	Email        string // stored trimmed and lower-cased
	PasswordHash string
	CreatedAt    time.Time
}

// Progress tracks one identity's training outcomes. Exactly one of
// SessionID/UserID owns the row at any time: SessionID while the owner is a
// guest, UserID once the row is linked to an account. The zero value of the
// other field stands in for NULL.
type Progress struct {
	ID             int64
	SessionID      string // empty once linked to an account
	UserID         int64  // zero while guest-owned
	RiskScore      int    // 0..100, lower is better
	TotalAttempted int
	CorrectCount   int
	CurrentStreak  int // consecutive safe decisions since the last unsafe one
}

// Attempt is an immutable record of one scenario decision. Tactic is a
// denormalized copy of the scenario's tactic at submission time so historical
// breakdowns survive catalog edits. Insertion order is chronological order.
type Attempt struct {
	ID          int64
	ProgressID  int64
	ScenarioID  int64
	ChoiceIndex int
	IsSafe      bool
	Tactic      string
}

// Choice is one option a scenario offers. ScoreDelta comes from content, it
// is not derived from IsSafe.
type Choice struct {
	Text        string `json:"text"`
	IsSafe      bool   `json:"is_safe"`
	Explanation string `json:"explanation"`
	ScoreDelta  int    `json:"score_delta"`
}

// Scenario is one entry of the read-only training catalog.
type Scenario struct {
	ID          int64
	Title       string
	Channel     string // email | messenger | call
	MessageText string
	Tactic      string
	Choices     []Choice
}
