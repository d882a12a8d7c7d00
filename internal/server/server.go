// Package server exposes the DiaryQuest HTTP API: character management,
// diary conversion with its progression side effects, quest tracking,
// report generation and export, semantic search, and a WebSocket stream
// for live conversion. Routes use method-qualified patterns and every
// response passes through the observe middleware, so clients always get a
// correlation ID.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/health"
	"github.com/meteoright00/diary-quest-sub001/internal/observe"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
	"github.com/meteoright00/diary-quest-sub001/internal/resilience"
	"github.com/meteoright00/diary-quest-sub001/internal/search"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
	"github.com/meteoright00/diary-quest-sub001/internal/world"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

// WorldSource yields the currently loaded world settings, nil when no world
// is configured. [world.Watcher] satisfies it.
type WorldSource interface {
	Current() *world.Settings
}

// Config carries the collaborators of a [Server]. Stores is required;
// everything else degrades gracefully when absent: a nil Provider turns the
// conversion and report routes into 503s, a nil Search turns the search
// route into a 404, and a nil World converts without world flavour.
type Config struct {
	Stores   *store.Stores
	Engine   *character.Engine
	Reports  *report.Aggregator
	Provider llm.Provider
	Events   *diary.EventRoller
	World    WorldSource
	Search   search.Index
	Metrics  *observe.Metrics
	Health   *health.Handler
}

// Server is the HTTP surface over the domain packages. Construct with
// [New]; safe for concurrent use.
type Server struct {
	stores   *store.Stores
	engine   *character.Engine
	agg      *report.Aggregator
	provider llm.Provider
	roller   *diary.EventRoller
	world    WorldSource
	index    search.Index
	metrics  *observe.Metrics
	health   *health.Handler
}

// New assembles a Server from cfg, filling in defaults for the engine, the
// event roller, the aggregator (wired to the engine's cost curve), the
// metrics and the health handler when cfg leaves them nil.
func New(cfg Config) *Server {
	engine := cfg.Engine
	if engine == nil {
		engine = character.NewEngine()
	}
	agg := cfg.Reports
	if agg == nil {
		agg = report.NewAggregator(cfg.Provider, report.WithCostFunc(engine.Cost()))
	}
	roller := cfg.Events
	if roller == nil {
		roller = diary.NewEventRoller()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	hh := cfg.Health
	if hh == nil {
		hh = health.New()
	}
	return &Server{
		stores:   cfg.Stores,
		engine:   engine,
		agg:      agg,
		provider: cfg.Provider,
		roller:   roller,
		world:    cfg.World,
		index:    cfg.Search,
		metrics:  metrics,
		health:   hh,
	}
}

// Handler returns the fully routed handler, wrapped with the observe
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/characters", s.handleCreateCharacter)
	mux.HandleFunc("GET /api/characters/{id}", s.handleGetCharacter)
	mux.HandleFunc("GET /api/characters/{id}/stats", s.handleCharacterStats)
	mux.HandleFunc("POST /api/characters/{id}/equip", s.handleEquip)
	mux.HandleFunc("POST /api/characters/{id}/unequip", s.handleUnequip)

	mux.HandleFunc("POST /api/diaries", s.handleCreateDiary)
	mux.HandleFunc("GET /api/diaries/{id}", s.handleGetDiary)
	mux.HandleFunc("GET /api/characters/{id}/diaries", s.handleListDiaries)
	mux.HandleFunc("GET /api/convert/stream", s.handleConvertStream)

	mux.HandleFunc("POST /api/quests", s.handleCreateQuest)
	mux.HandleFunc("POST /api/quests/{id}/complete", s.handleCompleteQuest)
	mux.HandleFunc("GET /api/characters/{id}/quests", s.handleListQuests)

	mux.HandleFunc("POST /api/reports", s.handleCreateReport)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/reports/{id}/export", s.handleExportReport)

	mux.HandleFunc("GET /api/search", s.handleSearch)

	return observe.Middleware(s.metrics)(mux)
}

// newConverter builds a converter for one conversion, snapshotting the
// current world settings. Converters are cheap; the snapshot keeps a single
// request's narrative consistent if the world file changes mid-flight.
func (s *Server) newConverter() *diary.Converter {
	opts := []diary.ConverterOption{diary.WithEventRoller(s.roller)}
	if s.world != nil {
		if ws := s.world.Current(); ws != nil {
			opts = append(opts, diary.WithWorld(ws.Content))
		}
	}
	return diary.NewConverter(s.provider, opts...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────────────────────────────────────

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encoding failed", "error", err)
	}
}

// writeError writes a JSON error body of the form {"error": "..."}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps domain sentinels to HTTP status codes. Anything
// unrecognised is a 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, quest.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, diary.ErrEmptyText),
		errors.Is(err, diary.ErrNoCharacter),
		errors.Is(err, character.ErrNegativeAmount),
		errors.Is(err, character.ErrUnknownSlot),
		errors.Is(err, report.ErrNoCharacter),
		errors.Is(err, report.ErrInvalidPeriod),
		errors.Is(err, report.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrNoProviders):
		return http.StatusServiceUnavailable
	case errors.Is(err, resilience.ErrAllFailed),
		errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err to a status via [errorStatus] and writes the JSON error
// body. Internal errors are logged and their text is not leaked.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON decodes the request body into v, rejecting unknown fields so
// client typos surface as errors instead of silently dropped settings.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("server: decode request: %w", err)
	}
	return nil
}

// parseDay parses a calendar day in "2006-01-02" form, also accepting a
// full RFC 3339 timestamp, and truncates to midnight UTC.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("server: parse date %q: expected YYYY-MM-DD", s)
	}
	return diary.Day(t), nil
}
