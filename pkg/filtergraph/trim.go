package filtergraph

import "fmt"

// TrimRange is an optional [start, end) cut of the source, in seconds.
// A nil boundary means "no trim on that side".
type TrimRange struct {
	StartSec *float64
	EndSec   *float64
}

func (t TrimRange) IsZero() bool {
	return t.StartSec == nil && t.EndSec == nil
}

func (t TrimRange) Validate() error {
	if t.StartSec != nil && *t.StartSec < 0 {
		return fmt.Errorf("trim start is negative: %v", *t.StartSec)
	}
	if t.StartSec != nil && t.EndSec != nil && *t.StartSec >= *t.EndSec {
		return fmt.Errorf("trim start (%v) is not before trim end (%v)", *t.StartSec, *t.EndSec)
	}
	return nil
}

func (t TrimRange) args() string {
	switch {
	case t.StartSec != nil && t.EndSec != nil:
		return "start=" + formatFloat(*t.StartSec) + ":end=" + formatFloat(*t.EndSec)
	case t.StartSec != nil:
		return "start=" + formatFloat(*t.StartSec)
	case t.EndSec != nil:
		return "end=" + formatFloat(*t.EndSec)
	default:
		return ""
	}
}

// Length returns the duration in seconds that survives the trim, given the
// total source duration.
func (t TrimRange) Length(sourceDurationSec float64) float64 {
	start := 0.0
	if t.StartSec != nil {
		start = *t.StartSec
	}
	end := sourceDurationSec
	if t.EndSec != nil && *t.EndSec < end {
		end = *t.EndSec
	}
	if end < start {
		return 0
	}
	return end - start
}
