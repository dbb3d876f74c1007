// Package playback implements the real-time synchronization loop that keeps
// a detached audio timeline locked to a video timeline under a signed offset
// and an adjustable playback rate. The video timeline is the master clock;
// the loop only ever seeks and rate-pins the audio timeline.
package playback

import (
	"fmt"
	"time"
)

// Bounds accepted from user input.
const (
	OffsetMinSec = -1.0
	OffsetMaxSec = 1.0
	RateMin      = 0.1
	RateMax      = 2.0
)

// State is the user-owned portion of a playback session. Rate corrections
// performed by the loop are transient and never persist into Rate.
type State struct {
	OffsetSec float64
	Rate      float64
	Playing   bool
	Dragging  bool
}

// SyncSample is one observation of the two timelines, produced once per
// tick. Ephemeral; kept only for diagnostics and the correction decision.
type SyncSample struct {
	VideoTimeSec         float64
	AudioTimeSec         float64
	ExpectedAudioTimeSec float64
	DriftSec             float64
	At                   time.Time
}

// Phase of the controller's state machine.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseDragging:
		return "dragging"
	default:
		return fmt.Sprintf("unknown-phase-%d", int(p))
	}
}

func validateOffset(offsetSec float64) error {
	if offsetSec < OffsetMinSec || offsetSec > OffsetMaxSec {
		return fmt.Errorf("offset %v is out of range [%v, %v]", offsetSec, OffsetMinSec, OffsetMaxSec)
	}
	return nil
}

func validateRate(rate float64) error {
	if rate < RateMin || rate > RateMax {
		return fmt.Errorf("rate %v is out of range [%v, %v]", rate, RateMin, RateMax)
	}
	return nil
}
