package services

import (
	"errors"

	"github.com/soaringjerry/Lurelab/internal/models"
)

// ProgressStore abstracts the persistence operations the progress workflows
// need. SubmitAttempt and ResetProgress must be atomic: the progress row and
// its attempt rows change together or not at all.
type ProgressStore interface {
	FindProgressBySessionID(sessionID string) (*models.Progress, error)
	FindProgressByUserID(userID int64) (*models.Progress, error)
	InsertProgress(p *models.Progress) (*models.Progress, error)
	GetScenario(id int64) (*models.Scenario, error)
	SubmitAttempt(p *models.Progress, a *models.Attempt) error
	CountUnsafeAttemptsByTactic(progressID int64) (map[string]int, error)
	ListAttemptsOrdered(progressID int64) ([]models.Attempt, error)
	ResetProgress(p *models.Progress) error
}

// AttemptFeedback is what the caller shows the user after one decision.
type AttemptFeedback struct {
	IsSafe      bool
	Explanation string
	Tactic      string
	Level       string
	Progress    models.Progress
}

// Stats is the full snapshot rendered on the results surface.
type Stats struct {
	RiskScore      int
	Level          string
	TotalAttempted int
	CorrectCount   int
	CurrentStreak  int
	SafePercentage float64
	Breakdown      []TacticMistakes
	Tips           []Tip
	Achievements   []Achievement
}

const defaultMaxTips = 3

// ProgressService resolves identities to their single progress record and
// applies attempt outcomes to it.
type ProgressService struct {
	store ProgressStore
}

func NewProgressService(store ProgressStore) *ProgressService {
	return &ProgressService{store: store}
}

func (s *ProgressService) findProgress(identity Identity) (*models.Progress, error) {
	if identity.Kind == IdentityAccount {
		return s.store.FindProgressByUserID(identity.UserID)
	}
	return s.store.FindProgressBySessionID(identity.SessionID)
}

// GetOrCreateProgress returns the one progress record for identity, creating
// it with initial counters on first sight. Two requests racing to create the
// same record are resolved by the store's unique owner constraint: the loser's
// insert fails and we re-read the winner's row, so a single logical record is
// used going forward.
func (s *ProgressService) GetOrCreateProgress(identity Identity) (*models.Progress, error) {
	p, err := s.findProgress(identity)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	fresh := &models.Progress{RiskScore: InitialRiskScore}
	if identity.Kind == IdentityAccount {
		fresh.UserID = identity.UserID
	} else {
		fresh.SessionID = identity.SessionID
	}
	created, err := s.store.InsertProgress(fresh)
	if err != nil {
		if errors.Is(err, ErrOwnershipConflict) {
			return nil, err
		}
		if p, ferr := s.findProgress(identity); ferr == nil && p != nil {
			return p, nil
		}
		return nil, err
	}
	return created, nil
}

// GetScenario returns one catalog entry or a not-found error.
func (s *ProgressService) GetScenario(id int64) (*models.Scenario, error) {
	scen, err := s.store.GetScenario(id)
	if err != nil {
		return nil, err
	}
	if scen == nil {
		return nil, NewNotFoundError("scenario not found")
	}
	return scen, nil
}

// SubmitAttempt applies one decision for identity: validates the scenario and
// choice (rejecting without any mutation), routes the outcome through
// RecordAttempt, and persists the updated progress together with the new
// attempt row in one store transaction.
func (s *ProgressService) SubmitAttempt(identity Identity, scenarioID int64, choiceIndex int) (*AttemptFeedback, error) {
	scen, err := s.GetScenario(scenarioID)
	if err != nil {
		return nil, err
	}
	if choiceIndex < 0 || choiceIndex >= len(scen.Choices) {
		return nil, NewInvalidError("invalid choice")
	}
	p, err := s.GetOrCreateProgress(identity)
	if err != nil {
		return nil, err
	}
	choice := scen.Choices[choiceIndex]
	RecordAttempt(p, choice.IsSafe, choice.ScoreDelta)
	attempt := &models.Attempt{
		ProgressID:  p.ID,
		ScenarioID:  scen.ID,
		ChoiceIndex: choiceIndex,
		IsSafe:      choice.IsSafe,
		Tactic:      scen.Tactic,
	}
	if err := s.store.SubmitAttempt(p, attempt); err != nil {
		return nil, err
	}
	return &AttemptFeedback{
		IsSafe:      choice.IsSafe,
		Explanation: choice.Explanation,
		Tactic:      scen.Tactic,
		Level:       ComputeLevel(p.RiskScore),
		Progress:    *p,
	}, nil
}

// Stats assembles the results snapshot for identity: score, level, streak,
// the full five-tactic mistake breakdown, up to three tips and achievement
// state recomputed from the attempt history.
func (s *ProgressService) Stats(identity Identity) (*Stats, error) {
	p, err := s.GetOrCreateProgress(identity)
	if err != nil {
		return nil, err
	}
	unsafeByTactic, err := s.store.CountUnsafeAttemptsByTactic(p.ID)
	if err != nil {
		return nil, err
	}
	breakdown := make([]TacticMistakes, 0, len(TacticPriority))
	for _, t := range TacticPriority {
		breakdown = append(breakdown, TacticMistakes{Tactic: t, MistakeCount: unsafeByTactic[t]})
	}
	attempts, err := s.store.ListAttemptsOrdered(p.ID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		RiskScore:      p.RiskScore,
		Level:          ComputeLevel(p.RiskScore),
		TotalAttempted: p.TotalAttempted,
		CorrectCount:   p.CorrectCount,
		CurrentStreak:  p.CurrentStreak,
		SafePercentage: SafePercentage(p.CorrectCount, p.TotalAttempted),
		Breakdown:      breakdown,
		Tips:           WeakTacticTips(breakdown, defaultMaxTips),
		Achievements:   ComputeAchievements(p, attempts),
	}, nil
}

// ResetProgress deletes the attempt history and restores every counter to its
// initial value, atomically.
func (s *ProgressService) ResetProgress(identity Identity) (*models.Progress, error) {
	p, err := s.GetOrCreateProgress(identity)
	if err != nil {
		return nil, err
	}
	p.RiskScore = InitialRiskScore
	p.TotalAttempted = 0
	p.CorrectCount = 0
	p.CurrentStreak = 0
	if err := s.store.ResetProgress(p); err != nil {
		return nil, err
	}
	return p, nil
}
