package db

import (
	"fmt"

	"github.com/soaringjerry/Lurelab/internal/models"
	"github.com/soaringjerry/Lurelab/internal/services"
)

// seedScenarios is the built-in training catalog, one scenario per tactic.
// Safe choices carry a negative delta, unsafe ones a positive delta; the
// numbers come from content, not from is_safe.
var seedScenarios = []models.Scenario{
	{
		Title:       "Payroll deadline",
		Channel:     "email",
		MessageText: "URGENT: your salary transfer fails in 30 minutes unless you confirm your bank details at the link below.",
		Tactic:      services.TacticUrgency,
		Choices: []models.Choice{
			{Text: "Click the link and confirm your details right away", IsSafe: false, ScoreDelta: 10, Explanation: "The 30-minute deadline exists only to stop you from thinking. Payroll never works like this."},
			{Text: "Ignore the deadline and check with payroll through the internal portal", IsSafe: true, ScoreDelta: -5, Explanation: "Right. Verifying through a channel you already trust defuses any manufactured urgency."},
			{Text: "Reply asking for more time", IsSafe: false, ScoreDelta: 10, Explanation: "Replying confirms your address is live and keeps the conversation on the attacker's terms."},
		},
	},
	{
		Title:       "Call from the security team",
		Channel:     "call",
		MessageText: "Hello, this is Victor from IT Security. We detected malware on your laptop; I need your login to clean it remotely.",
		Tactic:      services.TacticAuthority,
		Choices: []models.Choice{
			{Text: "Give him the login, he is from IT Security after all", IsSafe: false, ScoreDelta: 10, Explanation: "A job title over the phone is not identity. Real IT staff never need your password."},
			{Text: "Hang up and call the IT helpdesk number from the intranet", IsSafe: true, ScoreDelta: -5, Explanation: "Exactly. Call back on a number you looked up yourself, never one the caller gives you."},
			{Text: "Ask him to email the request so you have it in writing", IsSafe: false, ScoreDelta: 10, Explanation: "Attackers happily send a convincing follow-up email. Writing proves nothing about identity."},
		},
	},
	{
		Title:       "Last license available",
		Channel:     "messenger",
		MessageText: "Only 1 discounted license left for the design tool your team uses! Pay in the next hour with your corporate card to lock it in.",
		Tactic:      services.TacticScarcity,
		Choices: []models.Choice{
			{Text: "Pay quickly before the discount disappears", IsSafe: false, ScoreDelta: 10, Explanation: "\"Only one left\" is a pressure lever, not a fact you can verify. Procurement exists for this."},
			{Text: "Forward the offer to procurement and let them validate the vendor", IsSafe: true, ScoreDelta: -5, Explanation: "Correct. A real offer survives a day of verification; a scam does not."},
			{Text: "Ask the sender to hold it for you and share the card number later", IsSafe: false, ScoreDelta: 10, Explanation: "You have committed to the deal and to handing over payment data. The scarcity was invented."},
		},
	},
	{
		Title:       "A favor returned",
		Channel:     "messenger",
		MessageText: "Hey, I fixed your conference badge issue yesterday :) Could you quickly approve my access request to the finance share? Saves me the paperwork.",
		Tactic:      services.TacticReciprocity,
		Choices: []models.Choice{
			{Text: "Approve it, they did help you out yesterday", IsSafe: false, ScoreDelta: 10, Explanation: "A small favor creates a felt debt. Access approvals are exactly what that debt gets spent on."},
			{Text: "Thank them and point them to the normal access request process", IsSafe: true, ScoreDelta: -5, Explanation: "Right. Gratitude is free; access rights are not. The process exists to keep them separate."},
			{Text: "Approve it but ask them to file the paperwork afterwards", IsSafe: false, ScoreDelta: 10, Explanation: "The access is already granted; the paperwork will never come."},
		},
	},
	{
		Title:       "Account suspension notice",
		Channel:     "email",
		MessageText: "Your corporate account will be PERMANENTLY SUSPENDED due to a policy violation. Open the attached form within 24 hours to appeal.",
		Tactic:      services.TacticFear,
		Choices: []models.Choice{
			{Text: "Open the attachment immediately to appeal", IsSafe: false, ScoreDelta: 10, Explanation: "Fear of losing the account is the hook; the attachment is the payload."},
			{Text: "Check your account status yourself via the official admin page", IsSafe: true, ScoreDelta: -5, Explanation: "Exactly. If the threat were real, the official page would show it. Never let a scary email pick the path."},
			{Text: "Forward the email to colleagues to ask if they got it too", IsSafe: false, ScoreDelta: 10, Explanation: "Now the payload has more potential victims. Report it to security instead of spreading it."},
		},
	},
}

// Seed inserts the built-in scenario catalog on first run. It no-ops once any
// scenarios exist, so it is safe to call on every startup. Returns the number
// of scenarios inserted.
func (s *SQLiteStore) Seed() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM scenarios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scenarios: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i := range seedScenarios {
		sc := seedScenarios[i]
		if err := s.insertScenario(&sc); err != nil {
			return 0, err
		}
	}
	return len(seedScenarios), nil
}
