// Package filtergraph compiles playback parameters (rate, offset, trim) into
// the cheapest correct ffmpeg processing plan: verbatim pass-through,
// container-level stream copy, audio-only re-encode, or full re-encode.
package filtergraph

import "strings"

// Op is a single filter operation, rendered as "name=args" (or just "name"
// when it takes no arguments).
type Op struct {
	Name string
	Args string
}

func (op Op) String() string {
	if op.Args == "" {
		return op.Name
	}
	return op.Name + "=" + op.Args
}

// Chain is an ordered filter pipeline; operations apply left to right.
type Chain []Op

func (c Chain) String() string {
	parts := make([]string, 0, len(c))
	for _, op := range c {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, ",")
}
