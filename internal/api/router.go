package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/soaringjerry/Lurelab/internal/config"
	"github.com/soaringjerry/Lurelab/internal/logger"
	"github.com/soaringjerry/Lurelab/internal/middleware"
	"github.com/soaringjerry/Lurelab/internal/models"
	"github.com/soaringjerry/Lurelab/internal/services"
)

// Router wires the JSON endpoints to the core services. It owns cookie
// handling; the services never see HTTP.
type Router struct {
	cfg      config.Config
	log      *logger.Logger
	progress *services.ProgressService
	auth     *services.AuthService
}

func NewRouter(cfg config.Config, log *logger.Logger, progress *services.ProgressService, auth *services.AuthService) *Router {
	return &Router{cfg: cfg, log: log, progress: progress, auth: auth}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/scenarios/", rt.handleScenario)   // GET /api/scenarios/{id}
	mux.HandleFunc("/api/attempts", rt.handleAttempts)     // POST
	mux.HandleFunc("/api/stats", rt.handleStats)           // GET
	mux.HandleFunc("/api/reset", rt.handleReset)           // POST
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/auth/logout", rt.handleLogout)     // POST
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service errors to HTTP statuses. Anything that is not a
// ServiceError is a storage or programming failure and stays opaque.
func (rt *Router) writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": se.Message})
		return
	}
	rt.log.Error("request failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (rt *Router) identity(w http.ResponseWriter, r *http.Request) (services.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		// Router registered without the identity middleware.
		rt.log.Error("no identity in request context", "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return services.Identity{}, false
	}
	return id, true
}

type scenarioOut struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Channel     string          `json:"channel"`
	MessageText string          `json:"message_text"`
	Tactic      string          `json:"tactic"`
	Choices     []models.Choice `json:"choices"`
}

// GET /api/scenarios/{id}
func (rt *Router) handleScenario(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/scenarios/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scenario id"})
		return
	}
	scen, err := rt.progress.GetScenario(id)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarioOut{
		ID:          scen.ID,
		Title:       scen.Title,
		Channel:     scen.Channel,
		MessageText: scen.MessageText,
		Tactic:      scen.Tactic,
		Choices:     scen.Choices,
	})
}

type attemptOut struct {
	RiskScore      int    `json:"risk_score"`
	Level          string `json:"level"`
	TotalAttempted int    `json:"total_attempted"`
	CorrectCount   int    `json:"correct_count"`
	CurrentStreak  int    `json:"current_streak"`
	IsSafe         bool   `json:"is_safe"`
	Explanation    string `json:"explanation"`
	Tactic         string `json:"tactic"`
}

// POST /api/attempts
func (rt *Router) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ScenarioID  int64 `json:"scenario_id"`
		ChoiceIndex int   `json:"choice_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	identity, ok := rt.identity(w, r)
	if !ok {
		return
	}
	fb, err := rt.progress.SubmitAttempt(identity, req.ScenarioID, req.ChoiceIndex)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptOut{
		RiskScore:      fb.Progress.RiskScore,
		Level:          fb.Level,
		TotalAttempted: fb.Progress.TotalAttempted,
		CorrectCount:   fb.Progress.CorrectCount,
		CurrentStreak:  fb.Progress.CurrentStreak,
		IsSafe:         fb.IsSafe,
		Explanation:    fb.Explanation,
		Tactic:         fb.Tactic,
	})
}

type statsOut struct {
	RiskScore      int                       `json:"risk_score"`
	Level          string                    `json:"level"`
	TotalAttempted int                       `json:"total_attempted"`
	CorrectCount   int                       `json:"correct_count"`
	CurrentStreak  int                       `json:"current_streak"`
	SafePercentage float64                   `json:"safe_percentage"`
	Breakdown      []services.TacticMistakes `json:"tactic_breakdown"`
	Tips           []services.Tip            `json:"tips"`
	Achievements   []services.Achievement    `json:"achievements"`
}

// GET /api/stats
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, ok := rt.identity(w, r)
	if !ok {
		return
	}
	st, err := rt.progress.Stats(identity)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsOut{
		RiskScore:      st.RiskScore,
		Level:          st.Level,
		TotalAttempted: st.TotalAttempted,
		CorrectCount:   st.CorrectCount,
		CurrentStreak:  st.CurrentStreak,
		SafePercentage: st.SafePercentage,
		Breakdown:      st.Breakdown,
		Tips:           st.Tips,
		Achievements:   st.Achievements,
	})
}

// POST /api/reset
func (rt *Router) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, ok := rt.identity(w, r)
	if !ok {
		return
	}
	p, err := rt.progress.ResetProgress(identity)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "risk_score": p.RiskScore})
}

func (rt *Router) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     rt.cfg.AuthCookieName,
		Value:    token,
		MaxAge:   int(rt.cfg.AuthCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

type authOut struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		LinkProgress bool   `json:"link_progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	if req.LinkProgress {
		if sid := cookieValue(r, rt.cfg.SessionCookieName); sid != "" {
			if err := rt.auth.MigrateGuestProgress(sid, res.Account.ID); err != nil {
				rt.writeErr(w, err)
				return
			}
		}
	}
	rt.setAuthCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, authOut{UserID: res.Account.ID, Email: res.Account.Email})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	rt.setAuthCookie(w, res.Token)
	writeJSON(w, http.StatusOK, authOut{UserID: res.Account.ID, Email: res.Account.Email})
}

// POST /api/auth/logout
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Path must match the one used when setting the cookie.
	http.SetCookie(w, &http.Cookie{
		Name:     rt.cfg.AuthCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
