package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// DefaultInterval approximates one display refresh at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// Interval drives the callback on a goroutine at a fixed period.
type Interval struct {
	Period time.Duration

	locker   sync.Mutex
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

var _ Ticker = (*Interval)(nil)

func NewInterval(period time.Duration) *Interval {
	if period <= 0 {
		period = DefaultInterval
	}
	return &Interval{Period: period}
}

func (t *Interval) Start(
	ctx context.Context,
	callback func(ctx context.Context),
) {
	t.locker.Lock()
	defer t.locker.Unlock()
	if t.cancelFn != nil {
		panic("Start called on an already-running Interval")
	}

	ctx, cancelFn := context.WithCancel(ctx)
	doneCh := make(chan struct{})
	t.cancelFn = cancelFn
	t.doneCh = doneCh

	observability.Go(ctx, func(ctx context.Context) {
		defer close(doneCh)
		logger.Tracef(ctx, "interval ticker loop")
		defer logger.Tracef(ctx, "/interval ticker loop")

		tick := time.NewTicker(t.Period)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
			}
			callback(ctx)
		}
	})
}

func (t *Interval) Stop() {
	t.locker.Lock()
	cancelFn := t.cancelFn
	doneCh := t.doneCh
	t.cancelFn = nil
	t.doneCh = nil
	t.locker.Unlock()

	if cancelFn == nil {
		return
	}
	cancelFn()
	<-doneCh
}
