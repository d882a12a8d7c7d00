// Package app wires all DiaryQuest subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP API until the context ends, RunMCP serves
// the Model Context Protocol surface instead, and Shutdown tears everything
// down in order.
//
// For testing, inject collaborators via functional options (WithStores,
// WithSearchIndex, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/config"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/health"
	"github.com/meteoright00/diary-quest-sub001/internal/mcpserver"
	"github.com/meteoright00/diary-quest-sub001/internal/observe"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
	"github.com/meteoright00/diary-quest-sub001/internal/resilience"
	"github.com/meteoright00/diary-quest-sub001/internal/search"
	"github.com/meteoright00/diary-quest-sub001/internal/server"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
	"github.com/meteoright00/diary-quest-sub001/internal/world"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/embeddings"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

// drainTimeout bounds how long an HTTP listener may take to finish in-flight
// requests once the run context ends.
const drainTimeout = 5 * time.Second

// NamedLLM pairs a text provider with the registry name it was created
// under, so the failover chain can report which backend served a request.
type NamedLLM struct {
	Name     string
	Provider llm.Provider
}

// Providers holds the instantiated model backends. Nil means the backend is
// not configured. Populated by main.go via the config registry.
type Providers struct {
	// LLM is the primary text provider; LLMName is its registry name.
	LLM     llm.Provider
	LLMName string

	// Fallbacks are tried in order when the primary fails or its circuit
	// breaker is open.
	Fallbacks []NamedLLM

	// Embeddings powers the semantic diary search index.
	Embeddings embeddings.Provider
}

// App owns all subsystem lifetimes and serves the DiaryQuest API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New, torn down in Shutdown.
	stores   *store.Stores
	worldSrc server.WorldSource
	engine   *character.Engine
	roller   *diary.EventRoller
	agg      *report.Aggregator
	index    search.Index
	llm      llm.Provider
	metrics  *observe.Metrics
	checks   *health.Handler
	srv      *server.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStores injects a store bundle instead of opening one from config.
// The caller keeps ownership; Shutdown does not close injected stores.
func WithStores(s *store.Stores) Option {
	return func(a *App) { a.stores = s }
}

// WithLLM injects a text provider directly, bypassing the failover chain.
func WithLLM(p llm.Provider) Option {
	return func(a *App) { a.llm = p }
}

// WithSearchIndex injects a search index instead of opening one from config.
func WithSearchIndex(ix search.Index) Option {
	return func(a *App) { a.index = ix }
}

// WithWorldSource injects a world source instead of starting a file watcher.
func WithWorldSource(ws server.WorldSource) Option {
	return func(a *App) { a.worldSrc = ws }
}

// WithMetrics injects a metrics recorder and skips the OpenTelemetry
// provider setup, which registers global state and belongs to one App per
// process.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: telemetry setup, storage
// connection and migration, world-settings watcher, progression engine,
// failover chain, search index, and HTTP surface assembly.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Observability ─────────────────────────────────────────────────
	if err := a.initObservability(ctx); err != nil {
		return nil, fmt.Errorf("app: init observability: %w", err)
	}

	// ── 2. Storage ───────────────────────────────────────────────────────
	if err := a.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("app: init storage: %w", err)
	}

	// ── 3. World settings ────────────────────────────────────────────────
	if err := a.initWorld(); err != nil {
		return nil, fmt.Errorf("app: init world: %w", err)
	}

	// ── 4. LLM failover chain ───────────────────────────────────────────
	a.initLLM()

	// ── 5. Game rules ───────────────────────────────────────────────────
	a.initGame()

	// ── 6. Semantic search ──────────────────────────────────────────────
	if err := a.initSearch(ctx); err != nil {
		return nil, fmt.Errorf("app: init search: %w", err)
	}

	// ── 7. HTTP surface ─────────────────────────────────────────────────
	a.initServer()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initObservability sets up the global OTel providers and the metrics
// recorder, unless one was injected.
func (a *App) initObservability(ctx context.Context) error {
	if a.metrics != nil {
		return nil // injected
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		flushCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return shutdown(flushCtx)
	})

	a.metrics = observe.DefaultMetrics()
	return nil
}

// initStorage opens the configured persistence backend and runs migrations.
func (a *App) initStorage(ctx context.Context) error {
	if a.stores != nil {
		return nil // injected
	}

	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		a.stores = store.NewMemory()

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.stores = store.NewPostgres(pool)
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

	default: // sqlite, the config default
		s, err := store.OpenSQLite(a.cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.stores = s
		a.closers = append(a.closers, s.Close)
	}

	slog.Info("storage ready", "backend", a.cfg.Storage.Backend)
	return nil
}

// initWorld starts the world-settings watcher when a document is configured.
// The document may not exist yet; the watcher reports its appearance later.
func (a *App) initWorld() error {
	if a.worldSrc != nil {
		return nil // injected
	}
	path := a.cfg.World.Path
	if path == "" {
		return nil
	}

	w, err := world.NewWatcher(path, func(_, ws *world.Settings) {
		if ws == nil {
			slog.Info("world settings removed", "path", path)
			return
		}
		slog.Info("world settings reloaded", "path", path, "title", ws.Title)
	})
	if err != nil {
		return err
	}
	a.worldSrc = w
	a.closers = append(a.closers, func() error {
		w.Stop()
		return nil
	})

	if ws := w.Current(); ws != nil {
		slog.Info("world settings loaded", "path", path, "title", ws.Title)
	}
	return nil
}

// initLLM assembles the failover chain around the configured text backends.
// With none configured a.llm stays nil and the server answers conversion and
// report routes with 503; config validation already warned about that.
func (a *App) initLLM() {
	if a.llm != nil {
		return // injected
	}
	if a.providers.LLM == nil && len(a.providers.Fallbacks) == 0 {
		return
	}

	chain := resilience.NewChain(resilience.ChainConfig{Metrics: a.metrics})
	if a.providers.LLM != nil {
		name := a.providers.LLMName
		if name == "" {
			name = "primary"
		}
		chain.Add(name, a.providers.LLM)
	}
	for _, fb := range a.providers.Fallbacks {
		chain.Add(fb.Name, fb.Provider)
	}
	a.llm = chain
	slog.Info("llm failover chain ready", "providers", chain.Names())
}

// initGame builds the progression engine, the event roller and the report
// aggregator from the game tuning block. Zero values keep the defaults.
func (a *App) initGame() {
	var engOpts []character.Option
	if a.cfg.Game.CostBase > 0 {
		engOpts = append(engOpts, character.WithCostFunc(character.LinearCost(a.cfg.Game.CostBase)))
	}
	a.engine = character.NewEngine(engOpts...)

	var evOpts []diary.EventOption
	if a.cfg.Game.EventChance > 0 {
		evOpts = append(evOpts, diary.WithEventChance(a.cfg.Game.EventChance))
	}
	a.roller = diary.NewEventRoller(evOpts...)

	a.agg = report.NewAggregator(a.llm, report.WithCostFunc(a.engine.Cost()))
}

// initSearch opens the pgvector-backed search index. The index needs both an
// embeddings provider and the postgres backend; without either the search
// route stays disabled and config validation already warned.
func (a *App) initSearch(ctx context.Context) error {
	if a.index != nil {
		return nil // injected
	}
	if a.providers.Embeddings == nil || a.cfg.Storage.Backend != config.BackendPostgres {
		return nil
	}

	ix, err := search.Open(ctx, a.cfg.Storage.PostgresDSN, a.providers.Embeddings)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	a.index = ix
	a.closers = append(a.closers, func() error {
		ix.Close()
		return nil
	})

	slog.Info("semantic search ready", "dimensions", a.providers.Embeddings.Dimensions())
	return nil
}

// initServer assembles the health handler and the HTTP API server.
func (a *App) initServer() {
	if a.checks == nil {
		checkers := []health.Checker{health.StorageChecker(a.stores)}
		if a.cfg.World.Path != "" {
			checkers = append(checkers, health.WorldFileChecker(a.cfg.World.Path))
		}
		a.checks = health.New(checkers...)
	}

	a.srv = server.New(server.Config{
		Stores:   a.stores,
		Engine:   a.engine,
		Reports:  a.agg,
		Provider: a.llm,
		Events:   a.roller,
		World:    a.worldSrc,
		Search:   a.index,
		Metrics:  a.metrics,
		Health:   a.checks,
	})
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Handler returns the fully routed HTTP API handler. Useful for tests that
// serve the App through httptest instead of a real listener.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Run serves the HTTP API and blocks until ctx is cancelled or the listener
// fails. On cancellation the listener drains in-flight requests before Run
// returns the context error.
func (a *App) Run(ctx context.Context) error {
	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("http api listening", "addr", addr, "tls", a.cfg.Server.TLS != nil)
	return serveHTTP(ctx, "http", addr, a.srv.Handler(), a.cfg.Server.TLS)
}

// RunMCP serves the Model Context Protocol surface instead of the HTTP API.
// With mcp.http_addr set it speaks streamable HTTP on that address;
// otherwise it serves a single session on stdin/stdout until ctx ends.
func (a *App) RunMCP(ctx context.Context) error {
	mcpSrv := mcpserver.New(mcpserver.Config{
		Stores:  a.stores,
		Engine:  a.engine,
		Reports: a.agg,
		Index:   a.index,
	})

	addr := a.cfg.MCP.HTTPAddr
	if addr == "" {
		slog.Info("mcp serving on stdio")
		return mcpSrv.Run(ctx)
	}

	slog.Info("mcp listening", "addr", addr)
	return serveHTTP(ctx, "mcp", addr, mcpSrv.HTTPHandler(), nil)
}

// serveHTTP runs an HTTP server for handler on addr until ctx ends, then
// drains it. The name only labels errors.
func serveHTTP(ctx context.Context, name, addr string, handler http.Handler, tlsCfg *config.TLSConfig) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if tlsCfg != nil {
			serveErr <- srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("app: drain %s listener: %w", name, err)
		}
		return ctx.Err()
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve %s: %w", name, err)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in the order they were initialised. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
// Subsequent calls return nil without doing anything.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
