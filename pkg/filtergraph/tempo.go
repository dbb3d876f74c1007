package filtergraph

import (
	"fmt"
	"math"
)

// The atempo filter only accepts multipliers within [0.5, 2.0]; arbitrary
// rates are realized as a chain of bounded stages.
const (
	TempoMin = 0.5
	TempoMax = 2.0

	// Rates this close to 1.0 are treated as identity.
	tempoEpsilon = 1e-4
)

// RateIsNominal reports whether rate is close enough to 1.0 to be treated
// as no tempo change at all.
func RateIsNominal(rate float64) bool {
	return math.Abs(rate-1.0) <= tempoEpsilon
}

// TempoChain decomposes rate into a sequence of stage multipliers, each
// within [TempoMin, TempoMax], whose product equals rate (the final stage is
// rounded to 3 decimal places). An identity rate yields an empty chain.
func TempoChain(rate float64) ([]float64, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("invalid tempo rate: %v", rate)
	}

	var stages []float64
	remaining := rate
	for remaining < TempoMin {
		stages = append(stages, TempoMin)
		remaining /= TempoMin
	}
	for remaining > TempoMax {
		stages = append(stages, TempoMax)
		remaining /= TempoMax
	}
	if math.Abs(remaining-1.0) > tempoEpsilon {
		stages = append(stages, math.Round(remaining*1000)/1000)
	}
	return stages, nil
}

// TempoOps renders the decomposition of rate as atempo filter operations.
func TempoOps(rate float64) (Chain, error) {
	stages, err := TempoChain(rate)
	if err != nil {
		return nil, err
	}
	var chain Chain
	for _, stage := range stages {
		chain = append(chain, Op{Name: "atempo", Args: formatFloat(stage)})
	}
	return chain, nil
}
