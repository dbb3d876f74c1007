package ffmpeg

import (
	"strconv"
	"strings"

	"github.com/xaionaro-go/avsync/pkg/transcoder"
)

// reportProgress interprets one line of ffmpeg's `-progress` key=value
// stream. Reported fractions are raw: they may regress between runs of the
// progress block and overshoot 1.0 near completion; smoothing is done by the
// consumer.
func reportProgress(line string, spec transcoder.ExecSpec) {
	if spec.Progress == nil {
		return
	}

	if line == "progress=end" {
		spec.Progress(1.0)
		return
	}

	if spec.ExpectedDuration <= 0 {
		return
	}
	us, ok := parseOutTimeUS(line)
	if !ok {
		return
	}
	spec.Progress(float64(us) / 1e6 / spec.ExpectedDuration)
}

func parseOutTimeUS(line string) (int64, bool) {
	value, found := strings.CutPrefix(line, "out_time_us=")
	if !found {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return us, true
}
