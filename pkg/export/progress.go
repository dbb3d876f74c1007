package export

import (
	"sync"
	"time"
)

const (
	// A completion-level report arriving this early after start is treated
	// as spurious and suppressed.
	spuriousCompletionLevel  = 0.999
	spuriousCompletionWindow = 800 * time.Millisecond
)

// progressTracker turns the engine's raw progress reports (which may regress
// or overshoot 1.0 near completion) into a clamped, monotonic presentation.
type progressTracker struct {
	locker    sync.Mutex
	startedAt time.Time
	now       func() time.Time
	emit      func(float64)
	highest   float64
}

func newProgressTracker(now func() time.Time, emit func(float64)) *progressTracker {
	return &progressTracker{
		startedAt: now(),
		now:       now,
		emit:      emit,
	}
}

func (t *progressTracker) report(raw float64) {
	if t.emit == nil {
		return
	}

	t.locker.Lock()
	defer t.locker.Unlock()

	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	if raw >= spuriousCompletionLevel && t.now().Sub(t.startedAt) < spuriousCompletionWindow {
		return
	}
	if raw <= t.highest {
		return
	}
	t.highest = raw
	t.emit(raw)
}
