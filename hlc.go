// Package uhlc implements a unique Hybrid Logical Clock: it generates
// globally unique, causally-ordered timestamps across processes that
// share no common clock source. Each HLC stamps the timestamps it
// produces with its own ID, and merges timestamps received from peers so
// that everything it produces afterwards orders strictly after them.
package uhlc

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultMaxDelta is the maximum drift accepted from an incoming
// timestamp when WithMaxDelta is not used: an incoming time more than
// this far ahead of the local physical clock is rejected by Update.
const DefaultMaxDelta = 500 * time.Millisecond

// Clock is the physical time source read by an HLC. Now must return a
// well-formed NTP64 on every call; no ordering between calls is
// required, the HLC compensates for non-monotonic sources.
type Clock interface {
	Now() NTP64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() NTP64

func (f ClockFunc) Now() NTP64 { return f() }

var unixEpoch = time.Unix(0, 0)

// SystemClock reads the platform wall clock, as an NTP64 relative to the
// Unix epoch. It is the default physical source of an HLC.
var SystemClock Clock = ClockFunc(func() NTP64 {
	return NTP64FromDuration(time.Since(unixEpoch))
})

// ZeroClock always returns zero. It serves environments without
// wall-clock access: the HLC then degrades to a purely logical clock.
var ZeroClock Clock = ClockFunc(func() NTP64 { return 0 })

// HLC is a Hybrid Logical Clock. One instance is created per node or
// process and lives for its lifetime. All methods are safe for
// concurrent use; lastTime is the only mutable field and is written only
// while mu is held.
type HLC struct {
	id      ID
	clock   Clock
	delta   NTP64
	onDrift func(*DriftError)

	mu       sync.Mutex
	lastTime NTP64
}

// Option configures an HLC at construction time.
type Option func(*HLC)

// WithID sets the identifier of the HLC. It must be unique in the
// system. The default is a random one.
func WithID(id ID) Option {
	return func(h *HLC) { h.id = id }
}

// WithClock sets the physical time source. The default is SystemClock.
func WithClock(c Clock) Option {
	return func(h *HLC) { h.clock = c }
}

// WithMaxDelta sets the maximum accepted drift for incoming timestamps.
// A non-positive duration disables all tolerance: any incoming time
// ahead of the local clock is rejected. The default is DefaultMaxDelta.
func WithMaxDelta(d time.Duration) Option {
	return func(h *HLC) {
		if d <= 0 {
			h.delta = 0
			return
		}
		h.delta = NTP64FromDuration(d)
	}
}

// WithDriftHook registers an observer notified whenever Update rejects a
// timestamp. The hook never influences control flow.
func WithDriftHook(hook func(*DriftError)) Option {
	return func(h *HLC) { h.onDrift = hook }
}

// LogDriftHook returns a drift hook that logs rejections as warnings on
// the given slog logger.
func LogDriftHook(log *slog.Logger) func(*DriftError) {
	return func(e *DriftError) {
		log.Warn("incoming timestamp rejected",
			slog.String("from", e.ID.String()),
			slog.Int64("delta_ms", e.Delta.ToDuration().Milliseconds()),
			slog.String("msg_time", e.MsgTime.String()),
			slog.String("now", e.Now.String()),
		)
	}
}

// New creates an HLC. Without options it uses a random ID, the system
// wall clock and DefaultMaxDelta.
func New(opts ...Option) *HLC {
	h := &HLC{
		clock: SystemClock,
		delta: NTP64FromDuration(DefaultMaxDelta),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.id.IsZero() {
		h.id = RandomID()
	}
	return h
}

// ID returns the identifier of this HLC.
func (h *HLC) ID() ID {
	return h.id
}

// Delta returns the configured maximum accepted drift.
func (h *HLC) Delta() NTP64 {
	return h.delta
}

// NewTimestamp generates a new Timestamp. It is unique in the system and
// strictly greater than every timestamp this HLC previously produced and
// every incoming timestamp it accepted through Update.
func (h *HLC) NewTimestamp() Timestamp {
	// The clock read may be a slow system call; keep it out of the
	// critical section.
	now := h.clock.Now() & NTP64(lmask)

	h.mu.Lock()
	if now > h.lastTime&NTP64(lmask) {
		h.lastTime = now
	} else {
		// Physical clock stalled or jumped back, or several calls fell
		// within one tick: advance the counter bits instead. Sustained
		// bursts past the counter width carry into the time bits.
		h.lastTime++
	}
	ts := Timestamp{time: h.lastTime, id: h.id}
	h.mu.Unlock()

	return ts
}

// Update merges a Timestamp incoming from another HLC. If its time
// exceeds the local physical clock by more than the configured maximum
// delta, a *DriftError is returned and the local state stays unchanged.
// On success every Timestamp subsequently produced by NewTimestamp is
// strictly greater than the merged one.
func (h *HLC) Update(ts Timestamp) error {
	now := h.clock.Now() & NTP64(lmask)
	msgTime := ts.Time()
	if msgTime > now && msgTime-now > h.delta {
		err := &DriftError{ID: ts.ID(), Delta: h.delta, MsgTime: msgTime, Now: now}
		if h.onDrift != nil {
			h.onDrift(err)
		}
		return errors.WithStack(err)
	}

	h.mu.Lock()
	m := now
	if msgTime > m {
		m = msgTime
	}
	if h.lastTime > m {
		m = h.lastTime
	}
	switch m {
	case now:
		h.lastTime = now
	case msgTime:
		// Strictly exceed the incoming value without colliding with it.
		h.lastTime = msgTime + 1
	default:
		h.lastTime++
	}
	h.mu.Unlock()

	return nil
}
