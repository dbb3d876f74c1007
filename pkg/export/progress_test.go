package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	now := time.Unix(1000, 0)
	nowFunc := func() time.Time { return now }

	t.Run("clamps and stays monotonic", func(t *testing.T) {
		var reports []float64
		tracker := newProgressTracker(nowFunc, func(v float64) { reports = append(reports, v) })
		now = now.Add(2 * time.Second)

		tracker.report(-0.5)
		tracker.report(0.3)
		tracker.report(0.2) // regression: suppressed
		tracker.report(0.6)
		tracker.report(1.7) // overshoot: clamped
		tracker.report(0.9) // regression after completion: suppressed

		assert.Equal(t, []float64{0.3, 0.6, 1.0}, reports)
	})

	t.Run("suppresses a suspiciously early completion", func(t *testing.T) {
		var reports []float64
		tracker := newProgressTracker(nowFunc, func(v float64) { reports = append(reports, v) })

		now = now.Add(100 * time.Millisecond)
		tracker.report(1.0)
		assert.Empty(t, reports)

		now = now.Add(time.Second)
		tracker.report(1.0)
		assert.Equal(t, []float64{1.0}, reports)
	})

	t.Run("tolerates a nil sink", func(t *testing.T) {
		tracker := newProgressTracker(nowFunc, nil)
		tracker.report(0.5)
	})
}

func TestLogTail(t *testing.T) {
	tail := newLogTail()
	assert.Empty(t, tail.Tail())

	tail.append("a")
	tail.append("b")
	assert.Equal(t, []string{"a", "b"}, tail.Tail())

	for i := 0; i < 100; i++ {
		tail.append("line")
	}
	tail.append("last")
	lines := tail.Tail()
	assert.Len(t, lines, logTailLimit)
	assert.Equal(t, "last", lines[len(lines)-1])
}
