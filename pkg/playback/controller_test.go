package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avsync/pkg/ticker"
	"github.com/xaionaro-go/avsync/pkg/timeline"
)

type harness struct {
	video *timeline.Fake
	audio *timeline.Fake
	tick  *ticker.Manual
	ctrl  *Controller
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		video: timeline.NewFake(60),
		audio: timeline.NewFake(60),
		tick:  ticker.NewManual(),
		now:   time.Unix(1000, 0),
	}
	h.ctrl = NewController(h.video, h.audio, h.tick)
	h.ctrl.now = func() time.Time { return h.now }
	return h
}

// advance moves the fake wall clock past the correction throttle window.
func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) play(t *testing.T, ctx context.Context) {
	require.NoError(t, h.ctrl.Play(ctx))
	// First tick absorbs the start-up latency and moves Starting to Running.
	h.tick.Tick(ctx)
	require.Equal(t, PhaseRunning, h.ctrl.Phase())
}

func TestControllerSeekTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("audio lags by a positive offset", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		require.NoError(t, h.ctrl.SetOffset(ctx, 0.3))
		require.NoError(t, h.ctrl.Play(ctx))

		targets := h.audio.SeekTargets()
		require.Len(t, targets, 1)
		assert.InDelta(t, 4.7, targets[0], 1e-9)
	})

	t.Run("audio leads by a negative offset", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		require.NoError(t, h.ctrl.SetOffset(ctx, -0.3))
		require.NoError(t, h.ctrl.Play(ctx))

		targets := h.audio.SeekTargets()
		require.Len(t, targets, 1)
		assert.InDelta(t, 5.3, targets[0], 1e-9)
	})

	t.Run("rate does not enter the offset formula", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.ctrl.SetRate(ctx, 1.5))
		h.video.SetPositionValue(10.0)
		require.NoError(t, h.ctrl.Play(ctx))

		targets := h.audio.SeekTargets()
		require.Len(t, targets, 1)
		assert.InDelta(t, 10.0, targets[0], 1e-9)
	})

	t.Run("target is clamped to the audio duration", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(59.9)
		require.NoError(t, h.ctrl.SetOffset(ctx, -0.5))
		require.NoError(t, h.ctrl.Play(ctx))

		targets := h.audio.SeekTargets()
		require.Len(t, targets, 1)
		assert.InDelta(t, 60.0, targets[0], 1e-9)
	})

	t.Run("target is clamped at zero", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(0.1)
		require.NoError(t, h.ctrl.SetOffset(ctx, 0.8))
		require.NoError(t, h.ctrl.Play(ctx))

		targets := h.audio.SeekTargets()
		require.Len(t, targets, 1)
		assert.InDelta(t, 0.0, targets[0], 1e-9)
	})
}

func TestControllerStartup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(3.0)

	require.NoError(t, h.ctrl.Play(ctx))
	assert.Equal(t, PhaseStarting, h.ctrl.Phase())
	assert.True(t, h.video.Playing())
	assert.True(t, h.audio.Playing())
	assert.Len(t, h.audio.SeekTargets(), 1)

	// One additional corrective seek lands on the first tick.
	h.tick.Tick(ctx)
	assert.Equal(t, PhaseRunning, h.ctrl.Phase())
	assert.Len(t, h.audio.SeekTargets(), 2)
}

func TestControllerDriftThreshold(t *testing.T) {
	ctx := context.Background()

	t.Run("drift within the threshold is tolerated", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)
		seeksSoFar := len(h.audio.SeekTargets())

		h.audio.SetPositionValue(5.1)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)
		assert.Len(t, h.audio.SeekTargets(), seeksSoFar)

		sample := h.ctrl.LastSample()
		require.NotNil(t, sample)
		assert.InDelta(t, 0.1, sample.DriftSec, 1e-9)
	})

	t.Run("drift beyond the threshold is corrected", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)
		seeksSoFar := len(h.audio.SeekTargets())

		h.audio.SetPositionValue(5.2)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)

		targets := h.audio.SeekTargets()
		require.Len(t, targets, seeksSoFar+1)
		assert.InDelta(t, 5.0, targets[len(targets)-1], 1e-9)
	})

	t.Run("negative drift is corrected too", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)
		seeksSoFar := len(h.audio.SeekTargets())

		h.audio.SetPositionValue(4.7)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)
		assert.Len(t, h.audio.SeekTargets(), seeksSoFar+1)
	})
}

func TestControllerCorrectionThrottle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(5.0)
	h.play(t, ctx)
	seeksSoFar := len(h.audio.SeekTargets())

	h.advance(200 * time.Millisecond)
	h.audio.SetPositionValue(6.0)
	h.tick.Tick(ctx)
	require.Len(t, h.audio.SeekTargets(), seeksSoFar+1)

	// Drifting again right away: the tick runs, but the correction is
	// throttled.
	h.audio.SetPositionValue(6.0)
	h.advance(20 * time.Millisecond)
	h.tick.Tick(ctx)
	assert.Len(t, h.audio.SeekTargets(), seeksSoFar+1)

	h.advance(100 * time.Millisecond)
	h.tick.Tick(ctx)
	assert.Len(t, h.audio.SeekTargets(), seeksSoFar+2)
}

func TestControllerDragging(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(5.0)
	h.play(t, ctx)
	seeksSoFar := len(h.audio.SeekTargets())

	h.ctrl.BeginOffsetDrag(ctx)
	assert.Equal(t, PhaseDragging, h.ctrl.Phase())

	// However large the drift, no corrective seek while dragging.
	h.audio.SetPositionValue(20.0)
	for i := 0; i < 5; i++ {
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)
	}
	assert.Len(t, h.audio.SeekTargets(), seeksSoFar)

	// Offset changes during the drag are recorded without seeking.
	require.NoError(t, h.ctrl.SetOffset(ctx, 0.5))
	assert.Len(t, h.audio.SeekTargets(), seeksSoFar)

	// Drag end: exactly one corrective seek, using the latest offset.
	h.ctrl.EndOffsetDrag(ctx)
	targets := h.audio.SeekTargets()
	require.Len(t, targets, seeksSoFar+1)
	assert.InDelta(t, 4.5, targets[len(targets)-1], 1e-9)
	assert.Equal(t, PhaseRunning, h.ctrl.Phase())
}

func TestControllerScrub(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(5.0)
	h.play(t, ctx)
	seeksSoFar := len(h.audio.SeekTargets())

	h.video.SetPositionValue(30.0)
	h.ctrl.VideoScrubbed(ctx)
	targets := h.audio.SeekTargets()
	require.Len(t, targets, seeksSoFar+1)
	assert.InDelta(t, 30.0, targets[len(targets)-1], 1e-9)

	// Ignored while dragging.
	h.ctrl.BeginOffsetDrag(ctx)
	h.video.SetPositionValue(40.0)
	h.ctrl.VideoScrubbed(ctx)
	assert.Len(t, h.audio.SeekTargets(), seeksSoFar+1)
}

func TestControllerSeekRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("a transient failure is retried once on the next tick", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)

		h.audio.SetPositionValue(6.0)
		h.audio.FailNextSeeks(1)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)

		// The rejected write did not move the position yet.
		position, err := h.audio.Position(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 6.0, position, 1e-9)

		h.tick.Tick(ctx)
		position, err = h.audio.Position(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, position, 1e-9)
	})

	t.Run("a second failure is dropped", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)
		seeksSoFar := len(h.audio.SeekTargets())

		h.audio.SetPositionValue(6.0)
		h.audio.FailNextSeeks(2)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx) // attempt
		h.tick.Tick(ctx) // retry, fails again
		require.Len(t, h.audio.SeekTargets(), seeksSoFar+2)

		// Within the throttle window nothing further happens: the drop is
		// final until the loop self-heals on a later correction.
		h.tick.Tick(ctx)
		assert.Len(t, h.audio.SeekTargets(), seeksSoFar+2)
	})

	t.Run("a stale retry is discarded when a newer seek supersedes it", func(t *testing.T) {
		h := newHarness(t)
		h.video.SetPositionValue(5.0)
		h.play(t, ctx)

		// Seek A: drift correction, transiently rejected.
		h.audio.SetPositionValue(6.0)
		h.audio.FailNextSeeks(1)
		h.advance(200 * time.Millisecond)
		h.tick.Tick(ctx)

		// Seek B: the user commits a new offset before A's retry fires.
		require.NoError(t, h.ctrl.SetOffset(ctx, 0.5))
		position, err := h.audio.Position(ctx)
		require.NoError(t, err)
		require.InDelta(t, 4.5, position, 1e-9)

		// A's retry must not overwrite B's target.
		h.tick.Tick(ctx)
		position, err = h.audio.Position(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 4.5, position, 1e-9)
	})
}

func TestControllerRatePinning(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(5.0)
	h.play(t, ctx)

	require.NoError(t, h.ctrl.SetRate(ctx, 1.5))
	videoRate, err := h.video.Rate(ctx)
	require.NoError(t, err)
	audioRate, err := h.audio.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, videoRate)
	assert.Equal(t, 1.5, audioRate)

	// Simulate an externally bent audio rate; the next correction re-pins.
	require.NoError(t, h.audio.SetRate(ctx, 1.1))
	h.audio.SetPositionValue(6.0)
	h.advance(200 * time.Millisecond)
	h.tick.Tick(ctx)
	audioRate, err = h.audio.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, audioRate)

	t.Run("out-of-range values are rejected", func(t *testing.T) {
		assert.Error(t, h.ctrl.SetRate(ctx, 2.5))
		assert.Error(t, h.ctrl.SetRate(ctx, 0.05))
		assert.Error(t, h.ctrl.SetOffset(ctx, 1.5))
	})
}

func TestControllerStop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.video.SetPositionValue(5.0)
	h.play(t, ctx)

	require.NoError(t, h.ctrl.Stop(ctx))
	assert.Equal(t, PhaseStopped, h.ctrl.Phase())
	assert.False(t, h.video.Playing())
	assert.False(t, h.audio.Playing())
	assert.False(t, h.tick.Running())
	assert.Nil(t, h.ctrl.LastSample())

	// Stopping twice is fine.
	require.NoError(t, h.ctrl.Stop(ctx))
}

func TestControllerState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.ctrl.SetOffset(ctx, 0.25))
	require.NoError(t, h.ctrl.SetRate(ctx, 0.75))

	state := h.ctrl.State()
	assert.Equal(t, State{OffsetSec: 0.25, Rate: 0.75}, state)

	h.play(t, ctx)
	h.ctrl.BeginOffsetDrag(ctx)
	state = h.ctrl.State()
	assert.True(t, state.Playing)
	assert.True(t, state.Dragging)
}
