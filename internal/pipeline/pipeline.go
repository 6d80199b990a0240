package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/snutij/esport-ics/internal/calendar"
	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/logger"
	"github.com/snutij/esport-ics/internal/match"
	"github.com/snutij/esport-ics/internal/metrics"
	"github.com/snutij/esport-ics/internal/pandascore"
	"github.com/snutij/esport-ics/internal/storage"
)

// Fetcher lists upcoming matches for a game code.
type Fetcher interface {
	FetchMatches(ctx context.Context, code string, opts pandascore.FetchOptions) ([]pandascore.RawMatch, error)
}

// Runner regenerates the calendars of one or more games.
type Runner struct {
	Client  Fetcher
	Store   *storage.Storage
	Metrics *metrics.Metrics
	Logger  *logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes one game run.
type Result struct {
	RunID      string    `json:"run_id"`
	Game       string    `json:"game"`
	Folder     string    `json:"folder"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Fetched   int `json:"matches_fetched"`
	Calendars int `json:"calendars_written"`
	Events    int `json:"events_written"`
	Stale     int `json:"stale_files"`

	Writes []storage.WriteResult `json:"writes,omitempty"`
	Error  string                `json:"error,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the game completed without error.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Summary collects the results of a multi-game run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Games      []*Result `json:"games"`
}

// Failed returns the number of games that ended in error.
func (s *Summary) Failed() int {
	n := 0
	for _, g := range s.Games {
		if !g.OK() {
			n++
		}
	}
	return n
}

// Run regenerates the calendars of a single game under a new run id.
func (r *Runner) Run(ctx context.Context, game config.Game) (*Result, error) {
	res := r.run(ctx, uuid.NewString(), game)
	return res, res.Err
}

// RunAll runs every game in order. A failing game does not stop the
// others; the returned error joins the per-game errors.
func (r *Runner) RunAll(ctx context.Context, games []config.Game) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
	}

	var errs []error
	for _, game := range games {
		res := r.run(ctx, summary.RunID, game)
		summary.Games = append(summary.Games, res)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("game %s: %w", game.Code, res.Err))
		}
	}

	summary.FinishedAt = r.now()
	return summary, errors.Join(errs...)
}

func (r *Runner) run(ctx context.Context, runID string, game config.Game) *Result {
	log := r.logger().With(logger.Fields{"run_id": runID, "game": game.Code})

	res := &Result{
		RunID:     runID,
		Game:      game.Code,
		Folder:    game.Folder,
		Name:      game.Name,
		StartedAt: r.now(),
	}

	err := r.generate(ctx, log, game, res)

	res.FinishedAt = r.now()
	res.Err = err
	if err != nil {
		res.Error = err.Error()
		log.Error("game run failed", logger.Fields{
			"calendars": res.Calendars,
		}, err)
	} else {
		log.Info("game run complete", logger.Fields{
			"matches":   res.Fetched,
			"calendars": res.Calendars,
			"events":    res.Events,
			"stale":     res.Stale,
		})
	}
	r.Metrics.ObserveRun(game.Code, res.FinishedAt.Sub(res.StartedAt), err)
	return res
}

func (r *Runner) generate(ctx context.Context, log *logger.Logger, game config.Game, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := r.fetch(ctx, log, game)
	if err != nil {
		return fmt.Errorf("fetching matches: %w", err)
	}
	res.Fetched = len(raw)

	// Every record is mapped before anything is written.
	matches := make([]*match.Match, 0, len(raw))
	for _, rm := range raw {
		m, err := match.Map(rm)
		if err != nil {
			return fmt.Errorf("mapping: %w", err)
		}
		matches = append(matches, m)
	}

	agg := calendar.NewAggregator(game.Grouping, calendar.Info{
		Game:       game.Name,
		IncludeAll: game.IncludeAll,
	})
	for _, m := range matches {
		agg.Add(m)
	}

	log.Debug("matches grouped", logger.Fields{
		"matches": len(matches),
		"groups":  agg.Len(),
	})

	for _, g := range agg.Groups() {
		wr, err := r.Store.WriteCalendar(game.Folder, g)
		if wr.Stale {
			res.Stale++
			r.Metrics.ObserveStale(game.Code)
		}
		if err != nil {
			return err
		}
		res.Calendars++
		res.Events += wr.Total
		res.Writes = append(res.Writes, wr)
		r.Metrics.ObserveWrite(game.Code, wr.Total)
	}
	return nil
}

// fetch lists the game's upcoming matches. League-grouped games with
// configured league ids are fetched one league at a time.
func (r *Runner) fetch(ctx context.Context, log *logger.Logger, game config.Game) ([]pandascore.RawMatch, error) {
	if game.Grouping != config.GroupByLeague || len(game.Leagues) == 0 {
		log.Debug("fetching upcoming matches", nil)
		return r.Client.FetchMatches(ctx, game.Code, pandascore.FetchOptions{})
	}

	var all []pandascore.RawMatch
	seen := make(map[string]bool)
	for _, id := range game.Leagues {
		log.Debug("fetching upcoming matches", logger.Fields{"league_id": id})
		raw, err := r.Client.FetchMatches(ctx, game.Code, pandascore.FetchOptions{LeagueID: id})
		if err != nil {
			return nil, fmt.Errorf("league %s: %w", id, err)
		}
		for _, m := range raw {
			key := m.ID.String()
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, m)
		}
	}
	return all, nil
}

func (r *Runner) logger() *logger.Logger {
	if r.Logger == nil {
		return logger.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}
