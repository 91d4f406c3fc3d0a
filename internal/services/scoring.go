package services

import (
	"math"
	"sort"

	"github.com/soaringjerry/Lurelab/internal/models"
)

// Risk score rules: start at 50, unsafe choices push the score up, safe ones
// pull it down, always clamped to [MinScore, MaxScore].
const (
	InitialRiskScore = 50
	MinScore         = 0
	MaxScore         = 100
)

// Level labels, lowest risk first. The five bands partition [0,100].
const (
	LevelSecurityNinja = "Security Ninja" // 0-20
	LevelAwareUser     = "Aware User"     // 21-40
	LevelRookie        = "Rookie"         // 41-60
	LevelAtRisk        = "At Risk"        // 61-80
	LevelHighRisk      = "High Risk"      // 81-100
)

// The closed set of social-engineering tactics a scenario exercises.
const (
	TacticUrgency     = "Urgency"
	TacticAuthority   = "Authority"
	TacticScarcity    = "Scarcity"
	TacticReciprocity = "Reciprocity"
	TacticFear        = "Fear"
)

// TacticPriority is the fixed tactic order used for tie-breaking and padding
// in tip selection, and for presenting breakdowns.
var TacticPriority = []string{TacticUrgency, TacticAuthority, TacticScarcity, TacticReciprocity, TacticFear}

// TacticDisplay maps a tactic to its user-facing name.
var TacticDisplay = map[string]string{
	TacticUrgency:     "Urgency pressure",
	TacticAuthority:   "Fake authority",
	TacticScarcity:    "Artificial scarcity",
	TacticReciprocity: "Reciprocity hooks",
	TacticFear:        "Fear and threats",
}

var tacticTips = map[string]string{
	TacticUrgency:     "Be suspicious of anything that demands immediate action. Legitimate services rarely impose tight deadlines.",
	TacticAuthority:   "Verify anyone claiming to be IT, HR or management. Call back on a number you already know, not one from the message.",
	TacticScarcity:    "\"Only 5 spots left\" and limited-time offers are a classic lever. Slow down and verify before acting.",
	TacticReciprocity: "A small favor creates a felt obligation. You never owe anyone your credentials or personal data for it.",
	TacticFear:        "Messages about account locks or legal threats are often fake. Open the official app or site yourself instead of following links.",
}

// ApplyScoreDelta returns current+delta saturated to [MinScore, MaxScore].
// It never wraps, whatever the magnitude of delta.
func ApplyScoreDelta(current, delta int) int {
	sum := current + delta
	if delta > 0 && sum < current {
		return MaxScore
	}
	if delta < 0 && sum > current {
		return MinScore
	}
	if sum < MinScore {
		return MinScore
	}
	if sum > MaxScore {
		return MaxScore
	}
	return sum
}

// ComputeLevel maps a risk score in [0,100] to its level label.
func ComputeLevel(score int) string {
	switch {
	case score <= 20:
		return LevelSecurityNinja
	case score <= 40:
		return LevelAwareUser
	case score <= 60:
		return LevelRookie
	case score <= 80:
		return LevelAtRisk
	default:
		return LevelHighRisk
	}
}

// RecordAttempt applies one decision to p. This is the only transition rule
// for Progress; every submission path routes through it.
func RecordAttempt(p *models.Progress, isSafe bool, scoreDelta int) {
	p.RiskScore = ApplyScoreDelta(p.RiskScore, scoreDelta)
	p.TotalAttempted++
	if isSafe {
		p.CorrectCount++
		p.CurrentStreak++
	} else {
		p.CurrentStreak = 0
	}
}

// TacticMistakes is one row of a per-tactic mistake breakdown.
type TacticMistakes struct {
	Tactic       string `json:"tactic"`
	MistakeCount int    `json:"mistake_count"`
}

// Tip is one piece of advice for a tactic the user keeps falling for.
type Tip struct {
	Tactic string `json:"tactic"`
	Tip    string `json:"tip"`
}

// WeakTacticTips returns up to maxTips tips, tactics with the most mistakes
// first. Ties, and the padding used when fewer than maxTips tactics have any
// mistakes, follow TacticPriority order.
func WeakTacticTips(breakdown []TacticMistakes, maxTips int) []Tip {
	counts := make(map[string]int, len(TacticPriority))
	for _, b := range breakdown {
		counts[b.Tactic] += b.MistakeCount
	}
	ordered := make([]TacticMistakes, 0, len(TacticPriority))
	for _, t := range TacticPriority {
		ordered = append(ordered, TacticMistakes{Tactic: t, MistakeCount: counts[t]})
	}
	// Stable sort keeps TacticPriority order within equal counts, which also
	// leaves the zero-mistake tail in padding order.
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].MistakeCount > ordered[j].MistakeCount })
	tips := make([]Tip, 0, len(TacticPriority))
	for _, tm := range ordered {
		if len(tips) >= maxTips {
			break
		}
		tips = append(tips, Tip{Tactic: tm.Tactic, Tip: tacticTips[tm.Tactic]})
	}
	return tips
}

// Achievement ids, evaluated independently of each other.
const (
	AchievementNoClickHero       = "no_click_hero"
	AchievementPhishingDetector  = "phishing_detector"
	AchievementCalmUnderPressure = "calm_under_pressure"
)

type Achievement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

func maxConsecutiveSafe(attempts []models.Attempt) int {
	best, run := 0, 0
	for _, a := range attempts {
		if a.IsSafe {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func urgencySafeCount(attempts []models.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.IsSafe && a.Tactic == TacticUrgency {
			n++
		}
	}
	return n
}

// ComputeAchievements recomputes achievement state from the current progress
// and the chronologically ordered attempt history. Nothing is persisted, so a
// progress reset clears them.
func ComputeAchievements(p *models.Progress, attempts []models.Attempt) []Achievement {
	return []Achievement{
		{ID: AchievementNoClickHero, Name: "No-Click Hero", Unlocked: maxConsecutiveSafe(attempts) >= 3},
		{ID: AchievementPhishingDetector, Name: "Phishing Detector", Unlocked: p.CorrectCount >= 5},
		{ID: AchievementCalmUnderPressure, Name: "Calm Under Pressure", Unlocked: urgencySafeCount(attempts) >= 2},
	}
}

// SafePercentage returns the share of safe decisions rounded to one decimal.
func SafePercentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
