package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avsync/pkg/export"
	"github.com/xaionaro-go/avsync/pkg/filtergraph"
	ffmpegengine "github.com/xaionaro-go/avsync/pkg/transcoder/implementations/ffmpeg"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	rate := pflag.Float64("rate", 1.0, "playback rate to bake into the output")
	offset := pflag.Float64("offset", 0.0, "audio offset in seconds to bake into the output")
	trimStart := pflag.Float64("trim-start", -1, "trim start in seconds (negative: no trim)")
	trimEnd := pflag.Float64("trim-end", -1, "trim end in seconds (negative: no trim)")
	duration := pflag.Float64("duration", 0, "source duration in seconds (enables progress reporting)")
	pflag.Parse()

	if pflag.NArg() != 1 {
		panic("expected exactly one positional argument: path to the source media file")
	}
	sourcePath := pflag.Arg(0)

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	source, err := os.ReadFile(sourcePath)
	assertNoError(err)
	fingerprint, err := export.FingerprintFile(sourcePath)
	assertNoError(err)

	var trim filtergraph.TrimRange
	if *trimStart >= 0 {
		trim.StartSec = trimStart
	}
	if *trimEnd >= 0 {
		trim.EndSec = trimEnd
	}

	engine := ffmpegengine.New()
	defer engine.Close()
	exporter := export.NewExporter(engine)

	logger.Infof(ctx, "exporting %q (rate=%v offset=%v)...", sourcePath, *rate, *offset)
	result, err := exporter.Export(ctx, export.Request{
		SourceName:        filepath.Base(sourcePath),
		Source:            source,
		SourceDurationSec: *duration,
		Fingerprint:       fingerprint,
		Rate:              *rate,
		OffsetSec:         *offset,
		Trim:              trim,
	}, func(fraction float64) {
		logger.Infof(ctx, "progress: %3.0f%%", fraction*100)
	})
	assertNoError(err)

	outputPath := filepath.Join(filepath.Dir(sourcePath), result.OutputName)
	assertNoError(os.WriteFile(outputPath, result.Data, 0o644))
	logger.Infof(ctx, "done (%s): %q, %d bytes", result.Mode, outputPath, len(result.Data))
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
