// Package ffmpeg implements the transcoder engine on top of an ffmpeg
// binary, with a private staging directory for input and output media.
package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/transcoder"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"
)

type Engine struct {
	// BinaryPath overrides the ffmpeg binary; empty means $PATH lookup.
	BinaryPath string
	// StagingDir overrides the staging directory; empty means a fresh
	// temporary directory owned (and removed on Close) by the engine.
	StagingDir string

	loadLocker  sync.Mutex
	loadDoneCh  chan struct{}
	loadErr     error
	resolvedBin string
	stagingDir  string
	ownsStaging bool
}

var _ transcoder.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

// Load resolves the binary and creates the staging directory, exactly once.
// Concurrent callers all await the same initialization.
func (e *Engine) Load(ctx context.Context) error {
	e.loadLocker.Lock()
	doneCh := e.loadDoneCh
	if doneCh == nil {
		doneCh = make(chan struct{})
		e.loadDoneCh = doneCh
		observability.Go(ctx, func(ctx context.Context) {
			err := e.initialize(ctx)
			e.loadLocker.Lock()
			e.loadErr = err
			e.loadLocker.Unlock()
			close(doneCh)
		})
	}
	e.loadLocker.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-doneCh:
	}

	e.loadLocker.Lock()
	defer e.loadLocker.Unlock()
	return e.loadErr
}

func (e *Engine) initialize(ctx context.Context) error {
	bin := e.BinaryPath
	if bin == "" {
		resolved, err := exec.LookPath("ffmpeg")
		if err != nil {
			return fmt.Errorf("unable to find an ffmpeg binary: %w", err)
		}
		bin = resolved
	}

	stagingDir := e.StagingDir
	ownsStaging := false
	if stagingDir == "" {
		dir, err := os.MkdirTemp("", "avsync-export-*")
		if err != nil {
			return fmt.Errorf("unable to create a staging directory: %w", err)
		}
		stagingDir = dir
		ownsStaging = true
	}

	e.loadLocker.Lock()
	e.resolvedBin = bin
	e.stagingDir = stagingDir
	e.ownsStaging = ownsStaging
	e.loadLocker.Unlock()

	logger.Debugf(ctx, "ffmpeg engine initialized: binary=%q staging=%q", bin, stagingDir)
	return nil
}

func (e *Engine) loaded() (bin, staging string, err error) {
	e.loadLocker.Lock()
	defer e.loadLocker.Unlock()
	if e.resolvedBin == "" || e.stagingDir == "" {
		return "", "", fmt.Errorf("the engine is not loaded")
	}
	return e.resolvedBin, e.stagingDir, nil
}

func (e *Engine) stagingPath(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid staging file name: %q", name)
	}
	_, staging, err := e.loaded()
	if err != nil {
		return "", err
	}
	return filepath.Join(staging, name), nil
}

func (e *Engine) WriteInput(ctx context.Context, name string, data []byte) error {
	path, err := e.stagingPath(name)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create the staging file %q: %w", name, err)
	}
	counter := datacounter.NewWriterCounter(file)
	_, writeErr := counter.Write(data)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("unable to stage %q: %w", name, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("unable to finalize the staging file %q: %w", name, closeErr)
	}
	logger.Debugf(ctx, "staged %q: %d bytes", name, counter.Count())
	return nil
}

func (e *Engine) Execute(ctx context.Context, spec transcoder.ExecSpec) error {
	bin, staging, err := e.loaded()
	if err != nil {
		return err
	}

	args := append([]string{
		"-y",
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-progress", "pipe:1",
	}, spec.Args...)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = staging

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("unable to open the stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("unable to open the stderr pipe: %w", err)
	}

	logger.Debugf(ctx, "executing: %s %s", bin, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start ffmpeg: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	observability.Go(ctx, func(ctx context.Context) {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			reportProgress(scanner.Text(), spec)
		}
	})
	observability.Go(ctx, func(ctx context.Context) {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			logger.Tracef(ctx, "ffmpeg: %s", line)
			if spec.Log != nil {
				spec.Log(line)
			}
		}
	})

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("the run was cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg exited with an error: %w", err)
	}
	return nil
}

func (e *Engine) ReadOutput(ctx context.Context, name string) ([]byte, error) {
	path, err := e.stagingPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the output %q: %w", name, err)
	}
	logger.Debugf(ctx, "read output %q: %d bytes", name, len(data))
	return data, nil
}

func (e *Engine) DeleteFile(ctx context.Context, name string) error {
	path, err := e.stagingPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Close removes the staging directory if the engine created it.
func (e *Engine) Close() error {
	e.loadLocker.Lock()
	defer e.loadLocker.Unlock()
	if !e.ownsStaging || e.stagingDir == "" {
		return nil
	}
	dir := e.stagingDir
	e.stagingDir = ""
	return os.RemoveAll(dir)
}
