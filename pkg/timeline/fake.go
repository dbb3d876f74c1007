package timeline

import (
	"context"
	"sync"
)

// Command is one write issued against a Fake, recorded for assertions.
type Command struct {
	Name  string
	Value float64
}

// Fake is an in-memory Timeline for tests. Its position does not advance on
// its own; tests move it explicitly with Advance or SetPositionValue.
type Fake struct {
	locker sync.Mutex

	position float64
	rate     float64
	duration float64
	playing  bool

	failNextSeeks int
	commands      []Command
}

var _ Timeline = (*Fake)(nil)

func NewFake(duration float64) *Fake {
	return &Fake{
		rate:     1.0,
		duration: duration,
	}
}

func (f *Fake) Position(ctx context.Context) (float64, error) {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.position, nil
}

func (f *Fake) SetPosition(ctx context.Context, seconds float64) error {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.commands = append(f.commands, Command{Name: "seek", Value: seconds})
	if f.failNextSeeks > 0 {
		f.failNextSeeks--
		return ErrNotReady
	}
	f.position = Clamp(seconds, f.duration)
	return nil
}

func (f *Fake) Rate(ctx context.Context) (float64, error) {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.rate, nil
}

func (f *Fake) SetRate(ctx context.Context, rate float64) error {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.commands = append(f.commands, Command{Name: "rate", Value: rate})
	f.rate = rate
	return nil
}

func (f *Fake) Duration(ctx context.Context) (float64, error) {
	f.locker.Lock()
	defer f.locker.Unlock()
	if f.duration <= 0 {
		return 0, ErrUnknownDuration
	}
	return f.duration, nil
}

func (f *Fake) Play(ctx context.Context) error {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.commands = append(f.commands, Command{Name: "play"})
	f.playing = true
	return nil
}

func (f *Fake) Pause(ctx context.Context) error {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.commands = append(f.commands, Command{Name: "pause"})
	f.playing = false
	return nil
}

// Advance moves the position forward by dt seconds scaled by the current
// rate, emulating wall-clock playback.
func (f *Fake) Advance(dt float64) {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.position = Clamp(f.position+dt*f.rate, f.duration)
}

// SetPositionValue moves the position directly, bypassing the command log
// (emulates drift rather than a commanded seek).
func (f *Fake) SetPositionValue(seconds float64) {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.position = seconds
}

// FailNextSeeks makes the following n SetPosition calls return ErrNotReady.
func (f *Fake) FailNextSeeks(n int) {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.failNextSeeks = n
}

// Commands returns a copy of every write issued so far.
func (f *Fake) Commands() []Command {
	f.locker.Lock()
	defer f.locker.Unlock()
	result := make([]Command, len(f.commands))
	copy(result, f.commands)
	return result
}

// SeekTargets returns the target of every SetPosition call so far,
// including rejected ones.
func (f *Fake) SeekTargets() []float64 {
	f.locker.Lock()
	defer f.locker.Unlock()
	var targets []float64
	for _, cmd := range f.commands {
		if cmd.Name == "seek" {
			targets = append(targets, cmd.Value)
		}
	}
	return targets
}

// Playing reports whether Play was called more recently than Pause.
func (f *Fake) Playing() bool {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.playing
}
