package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/ticker"
	"github.com/xaionaro-go/avsync/pkg/timeline"
)

const (
	// DriftThresholdSec triggers a hard corrective seek: below typical
	// lip-sync perceptibility (~100-150ms) but above scheduling jitter.
	DriftThresholdSec = 0.12

	// Drift is acted on at most this often, however fast the ticker runs.
	correctionInterval = 100 * time.Millisecond
)

// Controller keeps audioTime ~= videoTime - offset while playing.
//
// Large drift is corrected with a hard seek rather than rate bending:
// perceptible rate drift is worse than a rare seek click. The audio rate is
// re-pinned to nominal after every correction so no transient adjustment can
// compound.
type Controller struct {
	video timeline.Timeline
	audio timeline.Timeline
	tick  ticker.Ticker
	now   func() time.Time

	locker    sync.Mutex
	phase     Phase
	offsetSec float64
	rate      float64

	seekSeq          uint64
	pendingRetry     *pendingSeek
	lastCorrectionAt time.Time
	lastSample       *SyncSample
}

// pendingSeek is a transiently rejected seek waiting for its single retry.
type pendingSeek struct {
	token  uint64
	target float64
}

func NewController(
	video timeline.Timeline,
	audio timeline.Timeline,
	tick ticker.Ticker,
) *Controller {
	return &Controller{
		video: video,
		audio: audio,
		tick:  tick,
		now:   time.Now,
		rate:  1.0,
	}
}

// State returns the user-visible playback state.
func (c *Controller) State() State {
	c.locker.Lock()
	defer c.locker.Unlock()
	return State{
		OffsetSec: c.offsetSec,
		Rate:      c.rate,
		Playing:   c.phase != PhaseStopped,
		Dragging:  c.phase == PhaseDragging,
	}
}

func (c *Controller) Phase() Phase {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.phase
}

// LastSample returns the most recent SyncSample, or nil before the first
// tick. For diagnostics only.
func (c *Controller) LastSample() *SyncSample {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.lastSample == nil {
		return nil
	}
	sample := *c.lastSample
	return &sample
}

// Play seeks the audio timeline to its expected position, pins both rates,
// starts both timelines and the periodic loop. One additional corrective
// seek follows on the first tick to absorb engine start-up latency.
func (c *Controller) Play(ctx context.Context) error {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.phase != PhaseStopped {
		return nil
	}

	c.correctiveSeekLocked(ctx)
	if err := c.video.SetRate(ctx, c.rate); err != nil {
		return err
	}
	if err := c.video.Play(ctx); err != nil {
		return err
	}
	if err := c.audio.Play(ctx); err != nil {
		return err
	}
	c.phase = PhaseStarting
	c.tick.Start(ctx, c.onTick)
	logger.Debugf(ctx, "playback started (offset=%v rate=%v)", c.offsetSec, c.rate)
	return nil
}

// Stop tears down the periodic loop and pauses both timelines. An in-flight
// corrective seek is not guaranteed to land after Stop; the audio timeline
// is paused anyway.
func (c *Controller) Stop(ctx context.Context) error {
	c.locker.Lock()
	if c.phase == PhaseStopped {
		c.locker.Unlock()
		return nil
	}
	c.phase = PhaseStopped
	c.pendingRetry = nil
	c.lastSample = nil
	c.locker.Unlock()

	c.tick.Stop()

	c.locker.Lock()
	defer c.locker.Unlock()
	if err := c.video.Pause(ctx); err != nil {
		return err
	}
	return c.audio.Pause(ctx)
}

// SetRate changes the nominal playback rate of both timelines synchronously.
func (c *Controller) SetRate(ctx context.Context, rate float64) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	c.locker.Lock()
	defer c.locker.Unlock()
	c.rate = rate
	if err := c.video.SetRate(ctx, rate); err != nil {
		return err
	}
	return c.audio.SetRate(ctx, rate)
}

// SetOffset changes the audio offset. Outside of a drag this is a commit and
// issues one corrective seek; during a drag the value is only recorded.
func (c *Controller) SetOffset(ctx context.Context, offsetSec float64) error {
	if err := validateOffset(offsetSec); err != nil {
		return err
	}
	c.locker.Lock()
	defer c.locker.Unlock()
	c.offsetSec = offsetSec
	switch c.phase {
	case PhaseStarting, PhaseRunning:
		c.correctiveSeekLocked(ctx)
	}
	return nil
}

// BeginOffsetDrag suspends corrective seeking while the user manipulates the
// offset control, so the loop does not fight the user's input. The audio
// rate is forced back to nominal for the whole drag.
func (c *Controller) BeginOffsetDrag(ctx context.Context) {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.phase != PhaseRunning && c.phase != PhaseStarting {
		return
	}
	c.phase = PhaseDragging
	c.pendingRetry = nil
	if err := c.audio.SetRate(ctx, c.rate); err != nil {
		logger.Debugf(ctx, "unable to pin the audio rate at drag start: %v", err)
	}
}

// EndOffsetDrag resumes the loop with exactly one corrective seek.
func (c *Controller) EndOffsetDrag(ctx context.Context) {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.phase != PhaseDragging {
		return
	}
	c.phase = PhaseRunning
	c.correctiveSeekLocked(ctx)
}

// VideoScrubbed handles the user moving the video position directly: one
// immediate corrective seek. Ignored while the offset is being dragged.
func (c *Controller) VideoScrubbed(ctx context.Context) {
	c.locker.Lock()
	defer c.locker.Unlock()
	switch c.phase {
	case PhaseStarting, PhaseRunning:
		c.correctiveSeekLocked(ctx)
	}
}

func (c *Controller) onTick(ctx context.Context) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.phase == PhaseStopped {
		return
	}

	c.retryPendingSeekLocked(ctx)

	sample, err := c.sampleLocked(ctx)
	if err != nil {
		logger.Debugf(ctx, "unable to sample the timelines: %v", err)
		return
	}
	c.lastSample = &sample

	switch c.phase {
	case PhaseDragging:
		return
	case PhaseStarting:
		// Start-up latency absorption seek.
		c.correctiveSeekLocked(ctx)
		c.phase = PhaseRunning
		return
	}

	now := c.now()
	if now.Sub(c.lastCorrectionAt) < correctionInterval {
		return
	}
	c.lastCorrectionAt = now

	if sample.DriftSec > DriftThresholdSec || sample.DriftSec < -DriftThresholdSec {
		logger.Debugf(ctx, "drift %.3fs exceeds %.3fs, correcting", sample.DriftSec, DriftThresholdSec)
		c.correctiveSeekLocked(ctx)
	}
}

func (c *Controller) sampleLocked(ctx context.Context) (SyncSample, error) {
	videoTime, err := c.video.Position(ctx)
	if err != nil {
		return SyncSample{}, err
	}
	audioTime, err := c.audio.Position(ctx)
	if err != nil {
		return SyncSample{}, err
	}
	expected := videoTime - c.offsetSec
	return SyncSample{
		VideoTimeSec:         videoTime,
		AudioTimeSec:         audioTime,
		ExpectedAudioTimeSec: expected,
		DriftSec:             audioTime - expected,
		At:                   c.now(),
	}, nil
}

// correctiveSeekLocked hard-seeks the audio timeline to
// clamp(videoTime - offset, 0, audioDuration), guarded by the seek token. A
// transient rejection schedules a single retry for the next tick; the retry
// is discarded if a newer seek supersedes it meanwhile. The audio rate is
// re-pinned to nominal afterwards either way.
func (c *Controller) correctiveSeekLocked(ctx context.Context) {
	videoTime, err := c.video.Position(ctx)
	if err != nil {
		logger.Debugf(ctx, "unable to read the video position: %v", err)
		return
	}
	target := videoTime - c.offsetSec

	audioDuration, err := c.audio.Duration(ctx)
	if err != nil {
		if !errors.Is(err, timeline.ErrUnknownDuration) {
			logger.Debugf(ctx, "unable to read the audio duration: %v", err)
		}
		audioDuration = 0
	}
	target = timeline.Clamp(target, audioDuration)

	c.seekSeq++
	token := c.seekSeq

	if err := c.audio.SetPosition(ctx, target); err != nil {
		if errors.Is(err, timeline.ErrNotReady) {
			c.pendingRetry = &pendingSeek{token: token, target: target}
		} else {
			logger.Debugf(ctx, "audio seek to %.3fs failed: %v", target, err)
		}
	}

	if err := c.audio.SetRate(ctx, c.rate); err != nil {
		logger.Debugf(ctx, "unable to re-pin the audio rate: %v", err)
	}
}

func (c *Controller) retryPendingSeekLocked(ctx context.Context) {
	retry := c.pendingRetry
	if retry == nil {
		return
	}
	c.pendingRetry = nil
	if retry.token != c.seekSeq {
		// A newer seek was issued meanwhile; the stale retry must not
		// overwrite it.
		return
	}
	// Exactly one retry; a second failure is dropped, the periodic loop
	// self-heals within the next correction interval anyway.
	if err := c.audio.SetPosition(ctx, retry.target); err != nil {
		logger.Debugf(ctx, "audio seek retry to %.3fs failed: %v", retry.target, err)
	}
	if err := c.audio.SetRate(ctx, c.rate); err != nil {
		logger.Debugf(ctx, "unable to re-pin the audio rate: %v", err)
	}
}
