package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/robfig/cron/v3"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/logger"
	"github.com/snutij/esport-ics/internal/metrics"
	"github.com/snutij/esport-ics/internal/pipeline"
	"github.com/snutij/esport-ics/internal/site"
	"github.com/snutij/esport-ics/internal/storage"
)

const (
	DefaultListen   = ":8080"
	DefaultSchedule = "0 */12 * * *"

	shutdownTimeout = 10 * time.Second
)

// Health states reported by /healthz.
const (
	StatusPending  = "pending"
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config wires a Server. Runner, Store and Registry are required.
type Config struct {
	Runner   *pipeline.Runner
	Store    *storage.Storage
	Registry *config.Registry
	Games    []config.Game
	Metrics  *metrics.Metrics
	Logger   *logger.Logger

	IndexPath string
	PublicURL string

	Listen     string
	Schedule   string
	InitialRun bool
}

// Server publishes the calendar tree over HTTP and regenerates it on a
// cron schedule.
type Server struct {
	cfg Config
	log *logger.Logger

	// runMu serializes regenerations.
	runMu sync.Mutex

	mu      sync.RWMutex
	running bool
	last    *pipeline.Summary
	lastErr error
}

// New returns a Server for cfg, applying defaults.
func New(cfg Config) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = config.DefaultIndexPath
	}
	if cfg.Games == nil && cfg.Registry != nil {
		cfg.Games = cfg.Registry.Games
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Server{cfg: cfg, log: log}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ics/*", s.handleCalendar)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.cfg.IndexPath); err != nil {
		writeError(w, http.StatusServiceUnavailable, "index not generated yet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, s.cfg.IndexPath)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	folder, file, ok := strings.Cut(rel, "/")
	if !ok || folder == "" || strings.Contains(file, "/") ||
		strings.HasPrefix(folder, ".") || strings.HasPrefix(file, ".") ||
		path.Ext(file) != storage.Extension {
		http.NotFound(w, r)
		return
	}

	p := s.cfg.Store.CalendarPath(folder, strings.TrimSuffix(file, storage.Extension))
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	http.ServeFile(w, r, p)
}

// Health is the /healthz body.
type Health struct {
	Status  string     `json:"status"`
	Running bool       `json:"running"`
	LastRun *RunStatus `json:"last_run,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// RunStatus summarizes the last regeneration.
type RunStatus struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Failed     int          `json:"failed"`
	Games      []GameStatus `json:"games"`
}

type GameStatus struct {
	Game      string `json:"game"`
	OK        bool   `json:"ok"`
	Calendars int    `json:"calendars"`
	Events    int    `json:"events"`
	Error     string `json:"error,omitempty"`
}

// Health reports the state of the last regeneration.
func (s *Server) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := Health{Status: StatusPending, Running: s.running}
	if s.last == nil {
		if s.lastErr != nil {
			h.Status = StatusDegraded
			h.Error = s.lastErr.Error()
		}
		return h
	}

	status := &RunStatus{
		RunID:      s.last.RunID,
		StartedAt:  s.last.StartedAt,
		FinishedAt: s.last.FinishedAt,
		Failed:     s.last.Failed(),
	}
	for _, g := range s.last.Games {
		status.Games = append(status.Games, GameStatus{
			Game:      g.Game,
			OK:        g.OK(),
			Calendars: g.Calendars,
			Events:    g.Events,
			Error:     g.Error,
		})
	}
	h.LastRun = status

	h.Status = StatusOK
	if s.lastErr != nil {
		h.Status = StatusDegraded
		h.Error = s.lastErr.Error()
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Health())
}

// Regenerate runs every configured game, then rewrites the index. Calls are
// serialized; a call made while another is in progress waits for it.
func (s *Server) Regenerate(ctx context.Context) (*pipeline.Summary, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.setRunning(true)
	summary, runErr := s.cfg.Runner.RunAll(ctx, s.cfg.Games)
	siteErr := s.writeIndex()
	if siteErr != nil {
		s.log.Error("index generation failed", logger.Fields{"path": s.cfg.IndexPath}, siteErr)
	}

	err := errors.Join(runErr, siteErr)
	s.mu.Lock()
	s.running = false
	s.last = summary
	s.lastErr = err
	s.mu.Unlock()

	fields := logger.Fields{"run_id": summary.RunID, "games": len(summary.Games), "failed": summary.Failed()}
	if err != nil {
		s.log.Warn("regeneration finished with errors", fields)
	} else {
		s.log.Info("regeneration complete", fields)
	}
	return summary, err
}

func (s *Server) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Server) writeIndex() error {
	games, err := s.cfg.Store.Scan()
	if err != nil {
		return fmt.Errorf("scanning calendars: %w", err)
	}
	page := site.Build(games, s.cfg.Registry, s.cfg.PublicURL)
	page.GeneratedAt = time.Now().UTC()
	return page.Write(s.cfg.IndexPath)
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the scheduler and serves HTTP on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cl := cronLogger{s.log}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.Regenerate(ctx) }); err != nil {
		ln.Close()
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	if s.cfg.InitialRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Regenerate(ctx)
		}()
	}

	httpSrv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()
	s.log.Info("server started", logger.Fields{
		"addr":     ln.Addr().String(),
		"schedule": s.cfg.Schedule,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("server stopped", nil)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
