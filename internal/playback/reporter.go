package playback

import (
	"context"
	"sync"
	"time"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

// Sink receives playback position writes for one viewing session.
type Sink func(ctx context.Context, positionSeconds float64, completed bool) error

type ReporterConfig struct {
	// Interval is the minimum spacing between periodic writes.
	Interval time.Duration
	// MinDelta is the minimum forward movement, in seconds of playback
	// position, for a periodic write to go through.
	MinDelta float64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Reporter throttles the position callbacks a player emits into a bounded
// stream of progress writes. Periodic writes are best-effort: a failure is
// logged and the position rides along with the next write. Flush always
// writes, retrying once, because it carries the final seconds before the
// learner navigates away.
type Reporter struct {
	sink     Sink
	interval time.Duration
	minDelta float64
	now      func() time.Time
	log      *logger.Logger

	mu          sync.Mutex
	wrote       bool
	lastWriteAt time.Time
	lastWritten float64
}

func NewReporter(sink Sink, cfg ReporterConfig, baseLog *logger.Logger) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.MinDelta <= 0 {
		cfg.MinDelta = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reporter{
		sink:     sink,
		interval: cfg.Interval,
		minDelta: cfg.MinDelta,
		now:      cfg.Now,
		log:      baseLog.With("service", "PlaybackReporter"),
	}
}

// Tick reports the current position during active playback. The write is
// skipped unless the interval has elapsed since the last write and the
// position moved at least MinDelta since the last written position. The
// first tick of a session always writes so the resume position sticks early.
func (r *Reporter) Tick(ctx context.Context, positionSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastWriteAt.IsZero() && now.Sub(r.lastWriteAt) < r.interval {
		return
	}
	if r.wrote && positionSeconds-r.lastWritten < r.minDelta {
		return
	}

	if err := r.sink(ctx, positionSeconds, false); err != nil {
		// Keep the cadence slot so a struggling backend is not retried on
		// every tick. The position is carried by the next write.
		r.lastWriteAt = now
		r.log.Warn("Periodic progress write dropped", "position_seconds", positionSeconds, "error", err)
		return
	}
	r.wrote = true
	r.lastWriteAt = now
	r.lastWritten = positionSeconds
}

// Flush writes unconditionally. Callers invoke it on pause, navigation away,
// and unmount. A failure is retried once before being surfaced.
func (r *Reporter) Flush(ctx context.Context, positionSeconds float64, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.sink(ctx, positionSeconds, completed)
	if err != nil {
		err = r.sink(ctx, positionSeconds, completed)
	}
	if err != nil {
		r.log.Error("Final progress write failed", "position_seconds", positionSeconds, "error", err)
		return err
	}
	r.wrote = true
	r.lastWriteAt = r.now()
	r.lastWritten = positionSeconds
	return nil
}
