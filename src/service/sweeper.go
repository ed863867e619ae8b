package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper is the background task that keeps the in-memory state bounded.
// Users that stop polling are marked offline after PresenceTTL and evicted
// once they have been silent for the eviction multiple of it; ringing calls
// nobody answers and active calls both sides abandoned are expired through
// the engine so they still get archived and produce an ended event.
//
// One goroutine runs the sweep; it uses the same store locks as the request
// path, so no extra synchronization is needed.
type Sweeper struct {
	engine *Engine
	log    *logrus.Logger

	interval    time.Duration
	presenceTTL time.Duration
	ringTTL     time.Duration
	sessionTTL  time.Duration

	done chan struct{}
}

// evictionFactor is how many presence TTLs a user may stay offline before the
// registry entry itself is removed.
const evictionFactor = 10

// NewSweeper creates a sweeper over the engine's stores.
func NewSweeper(engine *Engine, log *logrus.Logger, interval, presenceTTL, ringTTL, sessionTTL time.Duration) *Sweeper {
	return &Sweeper{
		engine:      engine,
		log:         log,
		interval:    interval,
		presenceTTL: presenceTTL,
		ringTTL:     ringTTL,
		sessionTTL:  sessionTTL,
		done:        make(chan struct{}),
	}
}

// Run blocks sweeping until Stop is called. Meant to run in its own goroutine.
func (w *Sweeper) Run() {
	w.log.WithFields(logrus.Fields{
		"interval":     w.interval,
		"presence_ttl": w.presenceTTL,
		"ring_ttl":     w.ringTTL,
		"session_ttl":  w.sessionTTL,
	}).Info("Starting sweeper")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			w.log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Stop signals the sweep loop to exit. Safe to call once.
func (w *Sweeper) Stop() {
	close(w.done)
}

// Sweep runs one cleanup cycle.
func (w *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()

	marked := w.engine.Presence.MarkStale(now.Add(-w.presenceTTL))
	evicted := w.engine.Presence.Evict(now.Add(-evictionFactor * w.presenceTTL))
	expired := w.engine.ExpireStale(ctx, w.ringTTL, w.sessionTTL)

	if marked > 0 || evicted > 0 || expired > 0 {
		w.log.WithFields(logrus.Fields{
			"users_marked_offline": marked,
			"users_evicted":        evicted,
			"sessions_expired":     expired,
		}).Debug("Sweep cycle done")
	}
}
