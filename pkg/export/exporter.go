// Package export bakes playback parameters (rate, offset, trim) into a new
// media file by compiling a filter-graph plan and running it through a
// transcoding engine, with per-session memoization of successful results.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/avsync/pkg/filtergraph"
	"github.com/xaionaro-go/avsync/pkg/transcoder"
)

// Request describes one export.
type Request struct {
	// SourceName is the user-facing name of the source file; the output
	// name is derived from it.
	SourceName string
	// Source is the raw source media.
	Source []byte
	// SourceDurationSec is used only for progress estimation; 0 disables
	// progress reporting.
	SourceDurationSec float64

	Fingerprint Fingerprint
	Rate        float64
	OffsetSec   float64
	Trim        filtergraph.TrimRange
}

// Result of a successful export. Immutable; may be served from the cache.
type Result struct {
	OutputName string
	Data       []byte
	Mode       filtergraph.Mode
}

type Exporter struct {
	engine transcoder.Engine
	cache  *Cache
	now    func() time.Time

	locker sync.Mutex
	busy   bool
}

func NewExporter(engine transcoder.Engine) *Exporter {
	return &Exporter{
		engine: engine,
		cache:  NewCache(0),
		now:    time.Now,
	}
}

// Export runs one export to completion or failure. A second call while one
// is in flight fails with ErrBusy. Cancelling ctx aborts the engine run.
// progress (optional) receives a clamped, monotonic completion fraction.
func (e *Exporter) Export(
	ctx context.Context,
	req Request,
	progress func(float64),
) (_ *Result, _err error) {
	logger.Debugf(ctx, "export requested: rate=%v offset=%v", req.Rate, req.OffsetSec)
	defer func() { logger.Debugf(ctx, "/export: %v", _err) }()

	if err := req.Trim.Validate(); err != nil {
		return nil, InvalidTrimRangeError{Err: err}
	}

	e.locker.Lock()
	if e.busy {
		e.locker.Unlock()
		return nil, ErrBusy
	}
	e.busy = true
	e.locker.Unlock()
	defer func() {
		e.locker.Lock()
		e.busy = false
		e.locker.Unlock()
	}()

	if cached, ok := e.cache.Get(req); ok {
		logger.Debugf(ctx, "export served from the cache")
		if progress != nil {
			progress(1.0)
		}
		return cached, nil
	}

	plans, err := filtergraph.Compile(req.Rate, req.OffsetSec, req.Trim)
	if err != nil {
		return nil, fmt.Errorf("unable to compile the filter plan: %w", err)
	}

	if plans[0].Mode == filtergraph.ModePassThrough {
		// The source file is the output verbatim; no engine invocation.
		result := &Result{
			OutputName: outputName(req),
			Data:       req.Source,
			Mode:       filtergraph.ModePassThrough,
		}
		e.cache.Put(req, result)
		if progress != nil {
			progress(1.0)
		}
		return result, nil
	}

	if err := e.engine.Load(ctx); err != nil {
		return nil, EngineNotReadyError{Err: err}
	}

	// Per-run stamped staging names: a prior run's pending cleanup must not
	// interfere with this one.
	runID := fmt.Sprintf("%d_%s", e.now().UnixMilli(), uuid.NewString()[:8])
	inputName := "in_" + runID + sourceExt(req.SourceName)
	if err := e.engine.WriteInput(ctx, inputName, req.Source); err != nil {
		return nil, InputError{Name: inputName, Err: err}
	}
	stagedNames := []string{inputName}
	defer func() { e.cleanup(ctx, stagedNames) }()

	tail := newLogTail()
	tracker := newProgressTracker(e.now, progress)
	expectedDuration := filtergraph.OutputDuration(req.SourceDurationSec, req.Rate, req.Trim)

	var lastErr error
	for i, plan := range plans {
		outName := fmt.Sprintf("out_%s_%d%s", runID, i, sourceExt(req.SourceName))
		stagedNames = append(stagedNames, outName)

		err := e.engine.Execute(ctx, transcoder.ExecSpec{
			Args:             plan.Args(inputName, outName),
			ExpectedDuration: expectedDuration,
			Progress:         tracker.report,
			Log:              tail.append,
		})
		if err != nil {
			lastErr = err
			if i+1 < len(plans) {
				logger.Debugf(ctx, "plan %v failed (%v), falling back to %v", plan.Mode, err, plans[i+1].Mode)
				continue
			}
			break
		}

		data, err := e.engine.ReadOutput(ctx, outName)
		if err != nil {
			return nil, fmt.Errorf("unable to read the export output: %w", err)
		}

		result := &Result{
			OutputName: outputName(req),
			Data:       data,
			Mode:       plan.Mode,
		}
		e.cache.Put(req, result)
		return result, nil
	}

	return nil, ExecutionError{Err: lastErr, LogTail: tail.Tail()}
}

// cleanup removes staged files best-effort; failures are logged and ignored.
func (e *Exporter) cleanup(ctx context.Context, names []string) {
	var mErr *multierror.Error
	for _, name := range names {
		if err := e.engine.DeleteFile(ctx, name); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to delete %q: %w", name, err))
		}
	}
	if err := mErr.ErrorOrNil(); err != nil {
		logger.Debugf(ctx, "staging cleanup left leftovers: %v", err)
	}
}

func sourceExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ".mp4"
	}
	return ext
}

// outputName derives the user-facing output file name from the source name,
// tagged with the baked-in rate and offset when they differ from neutral.
func outputName(req Request) string {
	ext := sourceExt(req.SourceName)
	base := strings.TrimSuffix(req.SourceName, filepath.Ext(req.SourceName))
	if !filtergraph.RateIsNominal(req.Rate) {
		base += fmt.Sprintf("_rate%.2f", req.Rate)
	}
	if req.OffsetSec != 0 {
		base += fmt.Sprintf("_offset%.3f", req.OffsetSec)
	}
	return base + ext
}
