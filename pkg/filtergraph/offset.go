package filtergraph

import (
	"fmt"
	"math"
	"strconv"
)

// OffsetOps translates a signed audio offset (seconds) into filter
// operations. The underlying primitives can only delay a stream, never
// advance it:
//
//   - offset > 0 (audio lags): delay both channels by the offset, rounded
//     to whole milliseconds;
//   - offset < 0 (audio leads): drop the lead-in from the front and reset
//     timestamps so the stream's zero point is the new start;
//   - offset == 0: nothing.
func OffsetOps(offsetSec float64) Chain {
	switch {
	case offsetSec > 0:
		ms := int64(math.Round(offsetSec * 1000))
		return Chain{
			{Name: "adelay", Args: fmt.Sprintf("%d|%d", ms, ms)},
		}
	case offsetSec < 0:
		return Chain{
			{Name: "atrim", Args: "start=" + formatFloat(-offsetSec)},
			{Name: "asetpts", Args: "PTS-STARTPTS"},
		}
	default:
		return nil
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
