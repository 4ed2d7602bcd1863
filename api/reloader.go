/*
reloader.go - Periodic dataset reload

PURPOSE:
  Re-reads the configured data source on an interval and swaps a freshly
  built engine into the Handler. Requests already in flight finish on the
  engine they started with; the Store itself is never mutated.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - A failed load keeps the current engine and is recorded in the run
  - The last run is reported by GET /healthz

CONFIGURATION:
  - RELOAD_INTERVAL: how often to reload (0 disables)

USAGE:
  r := NewReloader(handler, load, time.Minute)
  r.Start()
  // ... later
  r.Stop()

SEE ALSO:
  - handlers.go: Health reports LastRun
  - cmd/server: builds the LoadFunc from config
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/hvac-insights/hvac"
)

// LoadFunc builds a new engine from the data source.
type LoadFunc func(ctx context.Context) (*hvac.Engine, error)

// ReloadRun records one reload attempt.
type ReloadRun struct {
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Status      string       `json:"status"` // "completed" or "failed"
	Error       string       `json:"error,omitempty"`
	Counts      *hvac.Counts `json:"counts,omitempty"`
}

// Reloader refreshes a Handler's engine on a timer.
type Reloader struct {
	handler  *Handler
	load     LoadFunc
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex // guards ticker and stop

	runMu   sync.Mutex // serializes reloads
	lastMu  sync.RWMutex
	last    ReloadRun
	hasLast bool
}

// NewReloader attaches a reloader to h. Reloads are not scheduled until Start.
func NewReloader(h *Handler, load LoadFunc, interval time.Duration) *Reloader {
	r := &Reloader{
		handler:  h,
		load:     load,
		interval: interval,
		timeout:  time.Minute,
		log:      h.log.With().Str("worker", "reloader").Logger(),
	}
	h.reloader = r
	return r
}

// Start begins the reload loop. A non-positive interval leaves it disabled.
func (r *Reloader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval <= 0 {
		r.log.Info().Msg("reload disabled")
		return
	}
	if r.ticker != nil {
		return
	}

	r.ticker = time.NewTicker(r.interval)
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.run(r.ticker, r.stop)

	r.log.Info().Dur("interval", r.interval).Msg("reload started")
}

// Stop ends the loop and waits for a reload in progress.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.wg.Wait()
	r.ticker = nil
	r.log.Info().Msg("reload stopped")
}

func (r *Reloader) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer r.wg.Done()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			_ = r.RunNow(ctx)
			cancel()
		case <-stop:
			return
		}
	}
}

// RunNow reloads immediately. On failure the current engine stays in place.
func (r *Reloader) RunNow(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	run := ReloadRun{StartedAt: time.Now()}
	engine, err := r.load(ctx)
	if err == nil && engine == nil {
		err = errors.New("load returned no engine")
	}
	run.CompletedAt = time.Now()

	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		r.record(run)
		r.log.Error().Err(err).Msg("reload failed, keeping current dataset")
		return fmt.Errorf("reload: %w", err)
	}

	counts := engine.Store().Counts()
	run.Status = "completed"
	run.Counts = &counts
	r.handler.engine.Store(engine)
	r.record(run)

	r.log.Info().
		Int("clients", counts.Clients).
		Int("jobs", counts.Jobs).
		Dur("took", run.CompletedAt.Sub(run.StartedAt)).
		Msg("dataset reloaded")
	return nil
}

func (r *Reloader) record(run ReloadRun) {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	r.last, r.hasLast = run, true
}

// LastRun returns the most recent attempt, if any.
func (r *Reloader) LastRun() (ReloadRun, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last, r.hasLast
}
