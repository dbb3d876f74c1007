// Package timeline defines the contract with a media element: an
// independently advancing playback position that can be read, repositioned
// and rate-adjusted. Two instances exist in a playback session, one for the
// video stream and one for the detached audio stream.
//
// Discrete media-element events (started, paused, ended, position jumped by a
// user scrub) are not subscribed to here; the embedding application forwards
// them into the corresponding playback.Controller methods.
package timeline

import (
	"context"
	"errors"
)

var (
	// ErrNotReady is returned by SetPosition when the underlying element is
	// in a readiness state that rejects position writes. The condition is
	// transient; callers are expected to retry at most once.
	ErrNotReady = errors.New("timeline is not ready to accept a position write")

	// ErrUnknownDuration is returned by Duration while the element has not
	// yet determined the total length of its media.
	ErrUnknownDuration = errors.New("timeline duration is not known yet")
)

type Timeline interface {
	// Position returns the current playback position in seconds.
	Position(ctx context.Context) (float64, error)

	// SetPosition performs a hard seek to the given position in seconds.
	// May fail with ErrNotReady.
	SetPosition(ctx context.Context, seconds float64) error

	// Rate returns the current playback rate multiplier.
	Rate(ctx context.Context) (float64, error)

	// SetRate sets the playback rate multiplier.
	SetRate(ctx context.Context, rate float64) error

	// Duration returns the total media length in seconds, or
	// ErrUnknownDuration.
	Duration(ctx context.Context) (float64, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
}

// Clamp bounds a position to [0, duration]. A non-positive duration means
// the duration is unknown, in which case only the lower bound is applied.
func Clamp(seconds, duration float64) float64 {
	if seconds < 0 {
		return 0
	}
	if duration > 0 && seconds > duration {
		return duration
	}
	return seconds
}
