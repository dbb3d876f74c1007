package ticker

import (
	"context"
	"sync"
)

// Manual is a Ticker stepped explicitly by tests.
type Manual struct {
	locker   sync.Mutex
	callback func(ctx context.Context)
}

var _ Ticker = (*Manual)(nil)

func NewManual() *Manual {
	return &Manual{}
}

func (t *Manual) Start(
	ctx context.Context,
	callback func(ctx context.Context),
) {
	t.locker.Lock()
	defer t.locker.Unlock()
	t.callback = callback
}

func (t *Manual) Stop() {
	t.locker.Lock()
	defer t.locker.Unlock()
	t.callback = nil
}

// Tick invokes the registered callback once, synchronously. It is a no-op
// when the ticker is stopped.
func (t *Manual) Tick(ctx context.Context) {
	t.locker.Lock()
	callback := t.callback
	t.locker.Unlock()
	if callback != nil {
		callback(ctx)
	}
}

// Running reports whether a callback is currently registered.
func (t *Manual) Running() bool {
	t.locker.Lock()
	defer t.locker.Unlock()
	return t.callback != nil
}
