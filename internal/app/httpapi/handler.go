// Package httpapi exposes the sync REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	app "github.com/specificocean23/ABie-backend/internal/app"
	"github.com/specificocean23/ABie-backend/internal/app/domain/challenge"
	"github.com/specificocean23/ABie-backend/internal/app/domain/community"
	"github.com/specificocean23/ABie-backend/internal/app/domain/craving"
	"github.com/specificocean23/ABie-backend/internal/app/domain/progress"
	"github.com/specificocean23/ABie-backend/internal/app/metrics"
	challengessvc "github.com/specificocean23/ABie-backend/internal/app/services/challenges"
	communitysvc "github.com/specificocean23/ABie-backend/internal/app/services/community"
	progresssvc "github.com/specificocean23/ABie-backend/internal/app/services/progress"
	"github.com/specificocean23/ABie-backend/internal/middleware"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// Options configures the HTTP surface around the handlers.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64

	GeneralLimit  int
	GeneralWindow time.Duration
	StrictLimit   int
	StrictWindow  time.Duration
}

// DefaultOptions mirror the production limits: 100 requests per 15 minutes
// for general API routes, 5 per hour for the strict route, 1MB bodies.
func DefaultOptions() Options {
	return Options{
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
		GeneralLimit:   100,
		GeneralWindow:  15 * time.Minute,
		StrictLimit:    5,
		StrictWindow:   time.Hour,
	}
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// NewHandler returns a router exposing the sync REST API with CORS,
// compression, body-size limiting and per-IP rate limiting applied.
func NewHandler(application *app.Application, opts Options, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultOptions().MaxBodyBytes
	}

	h := &handler{app: application, log: log}

	auth := middleware.NewAuthMiddleware(application.Users, log)
	cors := middleware.NewCORSMiddleware(opts.AllowedOrigins)
	general := middleware.NewRateLimiter(opts.GeneralLimit, opts.GeneralWindow, false, log)
	strict := middleware.NewRateLimiter(opts.StrictLimit, opts.StrictWindow, true, log)
	general.StartCleanup(10 * time.Minute)
	strict.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler)
	r.Use(chimw.Compress(5))
	r.Use(chimw.RequestSize(opts.MaxBodyBytes))

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(general.Handler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Handler)

			r.Post("/progress", h.saveProgress)
			r.Get("/progress", h.loadProgress)
			r.Post("/cravings", h.saveCraving)
			r.Get("/cravings", h.listCravings)
			r.Post("/challenges", h.saveChallenges)
			r.Get("/challenges", h.loadChallenges)
			r.Get("/sync/full", h.fullSync)
		})

		r.With(strict.Handler).Post("/community/message", h.postMessage)
		r.Get("/community/messages", h.listMessages)
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// --- Progress ---------------------------------------------------------------

func (h *handler) saveProgress(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StartDate       time.Time         `json:"start_date"`
		GoalDays        int               `json:"goal_days"`
		GoalDescription string            `json:"goal_description"`
		CheckIns        []json.RawMessage `json:"check_ins"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, err := h.app.Progress.Save(r.Context(), middleware.GetAuthKey(r.Context()), progress.Progress{
		StartDate:       payload.StartDate,
		GoalDays:        payload.GoalDays,
		GoalDescription: payload.GoalDescription,
		CheckIns:        payload.CheckIns,
	})
	metrics.RecordSyncOperation("progress", "save", err)
	if err != nil {
		if errors.Is(err, progresssvc.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.serverError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *handler) loadProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Progress.Load(r.Context(), middleware.GetAuthKey(r.Context()))
	metrics.RecordSyncOperation("progress", "load", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	// p is nil when nothing has been saved yet; that encodes as JSON null.
	writeJSON(w, http.StatusOK, p)
}

// --- Cravings ---------------------------------------------------------------

func (h *handler) saveCraving(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Timestamp time.Time `json:"timestamp"`
		Intensity int       `json:"intensity"`
		Triggers  []string  `json:"triggers"`
		Notes     string    `json:"notes"`
		Overcome  bool      `json:"overcome"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, err := h.app.Cravings.Record(r.Context(), middleware.GetAuthKey(r.Context()), craving.Event{
		Timestamp: payload.Timestamp,
		Intensity: payload.Intensity,
		Triggers:  payload.Triggers,
		Notes:     payload.Notes,
		Overcome:  payload.Overcome,
	})
	metrics.RecordSyncOperation("cravings", "save", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *handler) listCravings(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0)
	events, err := h.app.Cravings.List(r.Context(), middleware.GetAuthKey(r.Context()), limit)
	metrics.RecordSyncOperation("cravings", "load", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if events == nil {
		events = []craving.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// --- Challenges -------------------------------------------------------------

func (h *handler) saveChallenges(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		XPPoints              int        `json:"xp_points"`
		CurrentChallengeIndex int        `json:"current_challenge_index"`
		LastSkipTime          *time.Time `json:"last_skip_time"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, err := h.app.Challenges.Save(r.Context(), middleware.GetAuthKey(r.Context()), challenge.Progress{
		XPPoints:              payload.XPPoints,
		CurrentChallengeIndex: payload.CurrentChallengeIndex,
		LastSkipTime:          payload.LastSkipTime,
	})
	metrics.RecordSyncOperation("challenges", "save", err)
	if err != nil {
		if errors.Is(err, challengessvc.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.serverError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *handler) loadChallenges(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Challenges.Load(r.Context(), middleware.GetAuthKey(r.Context()))
	metrics.RecordSyncOperation("challenges", "load", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- Full sync --------------------------------------------------------------

func (h *handler) fullSync(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Sync.Full(r.Context(), middleware.GetAuthKey(r.Context()))
	metrics.RecordSyncOperation("sync", "full", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// --- Community --------------------------------------------------------------

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		DaysClean int    `json:"days_clean"`
		Emoji     string `json:"emoji"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, err := h.app.Community.Post(r.Context(), community.Message{
		Message:   payload.Message,
		DaysClean: payload.DaysClean,
		Emoji:     payload.Emoji,
	})
	metrics.RecordSyncOperation("community", "save", err)
	if err != nil {
		if errors.Is(err, communitysvc.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.serverError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0)
	msgs, err := h.app.Community.List(r.Context(), limit)
	metrics.RecordSyncOperation("community", "load", err)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []community.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// --- Helpers ----------------------------------------------------------------

func (h *handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	// Datastore failures are logged with detail but never leaked to the
	// caller.
	h.log.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return limit
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
