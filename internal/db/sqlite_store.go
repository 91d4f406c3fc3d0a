package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soaringjerry/Lurelab/internal/models"
	"github.com/soaringjerry/Lurelab/internal/services"
)

// SQLiteStore implements the storage interfaces consumed by the services
// layer on top of a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Interface conformance with the consumer-side contracts.
var (
	_ services.AccountFinder = (*SQLiteStore)(nil)
	_ services.ProgressStore = (*SQLiteStore)(nil)
	_ services.AuthStore     = (*SQLiteStore)(nil)
)

// ownerColumns maps the Go zero-value owner convention to SQL NULLs and
// asserts the exactly-one-owner invariant on every write path.
func ownerColumns(p *models.Progress) (sql.NullString, sql.NullInt64, error) {
	hasSession := p.SessionID != ""
	hasUser := p.UserID != 0
	if hasSession == hasUser {
		return sql.NullString{}, sql.NullInt64{}, services.ErrOwnershipConflict
	}
	var sid sql.NullString
	var uid sql.NullInt64
	if hasSession {
		sid = sql.NullString{String: p.SessionID, Valid: true}
	} else {
		uid = sql.NullInt64{Int64: p.UserID, Valid: true}
	}
	return sid, uid, nil
}

func (s *SQLiteStore) FindAccountByID(id int64) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, email, password_hash, created_at FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *SQLiteStore) FindAccountByEmail(email string) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) InsertAccount(a *models.Account) (*models.Account, error) {
	res, err := s.db.Exec(
		`INSERT INTO accounts (email, password_hash, created_at) VALUES (?, ?, ?)`,
		a.Email, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert account id: %w", err)
	}
	a.ID = id
	return a, nil
}

const progressColumns = `id, session_id, user_id, risk_score, total_attempted, correct_count, current_streak`

func scanProgress(row *sql.Row) (*models.Progress, error) {
	var p models.Progress
	var sid sql.NullString
	var uid sql.NullInt64
	err := row.Scan(&p.ID, &sid, &uid, &p.RiskScore, &p.TotalAttempted, &p.CorrectCount, &p.CurrentStreak)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	p.SessionID = sid.String
	p.UserID = uid.Int64
	return &p, nil
}

func (s *SQLiteStore) FindProgressBySessionID(sessionID string) (*models.Progress, error) {
	row := s.db.QueryRow(`SELECT `+progressColumns+` FROM progress WHERE session_id = ?`, sessionID)
	return scanProgress(row)
}

func (s *SQLiteStore) FindProgressByUserID(userID int64) (*models.Progress, error) {
	row := s.db.QueryRow(`SELECT `+progressColumns+` FROM progress WHERE user_id = ?`, userID)
	return scanProgress(row)
}

func (s *SQLiteStore) InsertProgress(p *models.Progress) (*models.Progress, error) {
	sid, uid, err := ownerColumns(p)
	if err != nil {
		return nil, err
	}
	res, err := s.db.Exec(
		`INSERT INTO progress (session_id, user_id, risk_score, total_attempted, correct_count, current_streak)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sid, uid, p.RiskScore, p.TotalAttempted, p.CorrectCount, p.CurrentStreak,
	)
	if err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert progress id: %w", err)
	}
	p.ID = id
	return p, nil
}

func (s *SQLiteStore) UpdateProgress(p *models.Progress) error {
	return s.updateProgress(s.db, p)
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) updateProgress(ex execer, p *models.Progress) error {
	sid, uid, err := ownerColumns(p)
	if err != nil {
		return err
	}
	_, err = ex.Exec(
		`UPDATE progress SET session_id = ?, user_id = ?, risk_score = ?, total_attempted = ?, correct_count = ?, current_streak = ?
		 WHERE id = ?`,
		sid, uid, p.RiskScore, p.TotalAttempted, p.CorrectCount, p.CurrentStreak, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func insertAttempt(ex execer, a *models.Attempt) error {
	res, err := ex.Exec(
		`INSERT INTO attempts (progress_id, scenario_id, choice_index, is_safe, tactic) VALUES (?, ?, ?, ?, ?)`,
		a.ProgressID, a.ScenarioID, a.ChoiceIndex, a.IsSafe, a.Tactic,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

func (s *SQLiteStore) InsertAttempt(a *models.Attempt) error {
	return insertAttempt(s.db, a)
}

// SubmitAttempt persists the mutated progress row and the new attempt row in
// one transaction, so an attempt is never counted without being recorded or
// vice versa.
func (s *SQLiteStore) SubmitAttempt(p *models.Progress, a *models.Attempt) error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := s.updateProgress(tx, p); err != nil {
			return err
		}
		return insertAttempt(tx, a)
	})
}

// ResetProgress clears the attempt history and writes the reset counters in
// one transaction.
func (s *SQLiteStore) ResetProgress(p *models.Progress) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM attempts WHERE progress_id = ?`, p.ID); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		return s.updateProgress(tx, p)
	})
}

func (s *SQLiteStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAttempts(progressID int64) error {
	if _, err := s.db.Exec(`DELETE FROM attempts WHERE progress_id = ?`, progressID); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountUnsafeAttemptsByTactic(progressID int64) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT tactic, COUNT(*) FROM attempts WHERE progress_id = ? AND is_safe = 0 GROUP BY tactic`,
		progressID,
	)
	if err != nil {
		return nil, fmt.Errorf("count unsafe attempts: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var tactic string
		var n int
		if err := rows.Scan(&tactic, &n); err != nil {
			return nil, fmt.Errorf("scan unsafe count: %w", err)
		}
		out[tactic] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unsafe counts: %w", err)
	}
	return out, nil
}

// ListAttemptsOrdered returns a progress record's attempts in chronological
// (insertion) order.
func (s *SQLiteStore) ListAttemptsOrdered(progressID int64) ([]models.Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, progress_id, scenario_id, choice_index, is_safe, tactic FROM attempts WHERE progress_id = ? ORDER BY id`,
		progressID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	var out []models.Attempt
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(&a.ID, &a.ProgressID, &a.ScenarioID, &a.ChoiceIndex, &a.IsSafe, &a.Tactic); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetScenario(id int64) (*models.Scenario, error) {
	row := s.db.QueryRow(
		`SELECT id, title, channel, message_text, tactic, choices_json FROM scenarios WHERE id = ?`, id,
	)
	var sc models.Scenario
	var choicesJSON string
	if err := row.Scan(&sc.ID, &sc.Title, &sc.Channel, &sc.MessageText, &sc.Tactic, &choicesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan scenario: %w", err)
	}
	if err := json.Unmarshal([]byte(choicesJSON), &sc.Choices); err != nil {
		return nil, fmt.Errorf("decode scenario %d choices: %w", sc.ID, err)
	}
	return &sc, nil
}

func (s *SQLiteStore) insertScenario(sc *models.Scenario) error {
	choicesJSON, err := json.Marshal(sc.Choices)
	if err != nil {
		return fmt.Errorf("encode scenario choices: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO scenarios (title, channel, message_text, tactic, choices_json) VALUES (?, ?, ?, ?, ?)`,
		sc.Title, sc.Channel, sc.MessageText, sc.Tactic, string(choicesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert scenario: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		sc.ID = id
	}
	return nil
}
