package filtergraph

import (
	"fmt"
	"math"
)

type Mode int

const (
	// ModePassThrough: the source is the output verbatim; no engine run.
	ModePassThrough Mode = iota
	// ModeStreamCopy: re-mux both streams with a container-level time shift
	// between them; no re-encoding.
	ModeStreamCopy
	// ModeAudioReencode: video stream copied byte-identical, audio filtered
	// and re-encoded.
	ModeAudioReencode
	// ModeFullReencode: both streams filtered and re-encoded.
	ModeFullReencode
)

func (m Mode) String() string {
	switch m {
	case ModePassThrough:
		return "pass-through"
	case ModeStreamCopy:
		return "stream-copy"
	case ModeAudioReencode:
		return "audio-reencode"
	case ModeFullReencode:
		return "full-reencode"
	default:
		return fmt.Sprintf("unknown-mode-%d", int(m))
	}
}

// Encoding parameters for the re-encode paths. Matches what the rest of the
// application serves: H.264 video bounded to maxWidth, AAC audio.
const (
	videoCodec   = "libx264"
	videoPreset  = "veryfast"
	audioCodec   = "aac"
	audioBitrate = "192k"
	maxWidth     = 1280
	outputFPS    = "30"
)

// Plan is one compiled processing pipeline. Immutable once compiled.
type Plan struct {
	Mode      Mode
	Video     Chain
	Audio     Chain
	OffsetSec float64
}

// Compile returns the candidate plans for the given parameters, ordered from
// cheapest to most expensive; a plan later in the slice is the fallback for
// an engine failure of the one before it. The final candidate has no
// automatic fallback.
func Compile(rate, offsetSec float64, trim TrimRange) ([]Plan, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("invalid playback rate: %v", rate)
	}
	if err := trim.Validate(); err != nil {
		return nil, err
	}

	if RateIsNominal(rate) && offsetSec == 0 && trim.IsZero() {
		return []Plan{{Mode: ModePassThrough}}, nil
	}

	full := Plan{
		Mode:      ModeFullReencode,
		Video:     videoChain(rate, trim),
		OffsetSec: offsetSec,
	}
	audio, err := audioChain(rate, offsetSec, trim)
	if err != nil {
		return nil, err
	}
	full.Audio = audio

	if RateIsNominal(rate) && trim.IsZero() {
		// The full re-encode stays the terminal fallback of every chain.
		audioOnly := Plan{
			Mode:      ModeAudioReencode,
			Audio:     OffsetOps(offsetSec),
			OffsetSec: offsetSec,
		}
		if offsetSec > 0 {
			// Delaying audio needs no re-timestamping, so a pure re-mux
			// with an input-level time shift is attempted first.
			return []Plan{
				{Mode: ModeStreamCopy, OffsetSec: offsetSec},
				audioOnly,
				full,
			}, nil
		}
		return []Plan{audioOnly, full}, nil
	}

	return []Plan{full}, nil
}

func videoChain(rate float64, trim TrimRange) Chain {
	var chain Chain
	if !trim.IsZero() {
		chain = append(chain,
			Op{Name: "trim", Args: trim.args()},
			Op{Name: "setpts", Args: "PTS-STARTPTS"},
		)
	}
	if !RateIsNominal(rate) {
		// Timestamp stretch, not a frame-content change: speeding up by
		// rate divides every PTS by rate.
		chain = append(chain, Op{Name: "setpts", Args: "PTS/" + formatFloat(rate)})
	}
	chain = append(chain,
		Op{Name: "scale", Args: fmt.Sprintf("w='min(%d,iw)':h=-2", maxWidth)},
		Op{Name: "fps", Args: outputFPS},
	)
	return chain
}

func audioChain(rate, offsetSec float64, trim TrimRange) (Chain, error) {
	var chain Chain
	if !trim.IsZero() {
		chain = append(chain,
			Op{Name: "atrim", Args: trim.args()},
			Op{Name: "asetpts", Args: "PTS-STARTPTS"},
		)
	}
	chain = append(chain, OffsetOps(offsetSec)...)
	tempo, err := TempoOps(rate)
	if err != nil {
		return nil, err
	}
	return append(chain, tempo...), nil
}

// Args renders the engine argument list for processing input into output.
// ModePassThrough has no argument list: the caller hands the source bytes
// through without invoking the engine at all.
func (p Plan) Args(input, output string) []string {
	switch p.Mode {
	case ModePassThrough:
		return nil
	case ModeStreamCopy:
		// The second input, shifted by the offset, contributes the audio.
		return []string{
			"-i", input,
			"-itsoffset", formatFloat(p.OffsetSec),
			"-i", input,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c", "copy",
			"-movflags", "+faststart",
			output,
		}
	case ModeAudioReencode:
		args := []string{
			"-i", input,
			"-map", "0:v:0",
			"-map", "0:a:0",
			"-c:v", "copy",
		}
		if len(p.Audio) > 0 {
			args = append(args, "-filter:a", p.Audio.String())
		}
		return append(args,
			"-c:a", audioCodec,
			"-b:a", audioBitrate,
			"-movflags", "+faststart",
			output,
		)
	case ModeFullReencode:
		args := []string{
			"-i", input,
			"-map", "0:v:0",
			"-map", "0:a:0",
			"-filter:v", p.Video.String(),
		}
		if len(p.Audio) > 0 {
			args = append(args, "-filter:a", p.Audio.String())
		}
		return append(args,
			"-c:v", videoCodec,
			"-preset", videoPreset,
			"-c:a", audioCodec,
			"-b:a", audioBitrate,
			// Independently filtered streams can disagree about the total
			// length by a rounding error; cap to the shorter one.
			"-shortest",
			"-movflags", "+faststart",
			output,
		)
	default:
		return nil
	}
}

// OutputDuration predicts the duration of the processed output in seconds,
// given the source duration. Used for progress reporting.
func OutputDuration(sourceDurationSec, rate float64, trim TrimRange) float64 {
	if rate <= 0 {
		return 0
	}
	return trim.Length(sourceDurationSec) / rate
}
