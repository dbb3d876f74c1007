// Package ticker abstracts the periodic scheduling primitive that drives the
// synchronization loop. The playback controller only depends on the Ticker
// interface, so the loop can be driven by a real interval timer in production
// and stepped manually in tests.
package ticker

import "context"

type Ticker interface {
	// Start begins invoking callback periodically until Stop is called or
	// ctx is cancelled. Calling Start twice without an intervening Stop is
	// a programming error.
	Start(ctx context.Context, callback func(ctx context.Context))

	// Stop deterministically stops the periodic invocations. Idempotent.
	// After Stop returns, no further callback invocation is started.
	Stop()
}
