package watchdog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

const (
	STALL_THRESHOLD       = 30 * time.Second
	HEALTH_CHECK_DURATION = 1 * time.Second
)

// Watchdog reports when the holder of a long-running operation has been
// waiting on the same thing for too long. It only logs; nothing is
// interrupted.
type Watchdog struct {
	log       zerolog.Logger
	threshold time.Duration

	mutex    deadlock.RWMutex
	lastMark string
	since    time.Time
	warned   bool
}

func New(logger zerolog.Logger, threshold time.Duration) *Watchdog {
	if threshold <= 0 {
		threshold = STALL_THRESHOLD
	}

	return &Watchdog{
		log:       logger,
		threshold: threshold,
	}
}

// Mark records what is being waited on from now.
func (w *Watchdog) Mark(name string) {
	w.mutex.Lock()
	w.lastMark = name
	w.since = time.Now()
	w.warned = false
	w.mutex.Unlock()
}

func (w *Watchdog) Clear() {
	w.Mark("")
}

// Stalled returns the current mark if it has been held longer than the
// threshold at the given time.
func (w *Watchdog) Stalled(now time.Time) (string, time.Duration, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.lastMark == "" {
		return "", 0, false
	}

	waited := now.Sub(w.since)
	if waited < w.threshold {
		return "", 0, false
	}

	return w.lastMark, waited, true
}

func (w *Watchdog) check(now time.Time) {
	mark, waited, stalled := w.Stalled(now)
	if !stalled {
		return
	}

	w.mutex.Lock()
	if w.warned || w.lastMark != mark {
		w.mutex.Unlock()
		return
	}
	w.warned = true
	w.mutex.Unlock()

	w.log.Warn().
		Str("mark", mark).
		Dur("waited", waited).
		Msg("match is stalled")
}

// Run checks for stalls until the context is canceled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(HEALTH_CHECK_DURATION)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			w.check(now)
		case <-ctx.Done():
			return
		}
	}
}
