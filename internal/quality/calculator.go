// Package quality implements the protein quality math: DIAAS/PDCAAS score
// resolution, DV%-to-grams conversion, weighted multi-source scoring, and
// the default percentage allocation heuristics.
package quality

import (
	"protiq/models"
)

// Method names the quality metric that produced a result.
type Method string

const (
	MethodDIAAS  Method = "DIAAS"
	MethodPDCAAS Method = "PDCAAS"
)

const (
	// dailyValueGrams is the FDA reference daily value for protein.
	dailyValueGrams = 50.0

	// FallbackScore is applied to sources with neither DIAAS nor PDCAAS
	// data. The value is a policy choice carried over for behavioral
	// compatibility, not a measurement.
	FallbackScore = 0.75

	// dvDiscrepancyThreshold is the gram difference between the label's
	// stated amount and its DV%-derived amount above which the result
	// carries an informational discrepancy.
	dvDiscrepancyThreshold = 0.5
)

// Allocation pairs a source with an optional share of the total protein.
// Within one input, percentages are either present on every allocation or
// absent from all of them; the handlers validate that before calculating.
type Allocation struct {
	Source     models.ProteinSource
	Percentage *float64
}

// Input is a fully validated calculation request. StatedProtein is positive
// and Allocations is non-empty; the calculator does not re-check either.
type Input struct {
	StatedProtein float64
	DVPercentage  *float64
	Allocations   []Allocation
}

// Result is the outcome of one calculation.
type Result struct {
	QualityAdjustedProtein   float64  `json:"qualityAdjustedProtein"`
	ProteinQualityPercentage float64  `json:"proteinQualityPercentage"`
	CalculationMethod        Method   `json:"calculationMethod"`
	ScoreUsed                float64  `json:"scoreUsed"`
	AdjustedProtein          *float64 `json:"adjustedProtein,omitempty"`
	DVDiscrepancy            *float64 `json:"dvDiscrepancy,omitempty"`
}

// resolveScore applies the fallback policy to one source: DIAAS preferred,
// then PDCAAS, then FallbackScore reported as DIAAS.
func resolveScore(source models.ProteinSource) (float64, Method) {
	score := source.Score()
	switch score.Kind {
	case models.ScoreDIAAS:
		return score.Value, MethodDIAAS
	case models.ScorePDCAAS:
		return score.Value, MethodPDCAAS
	default:
		return FallbackScore, MethodDIAAS
	}
}

// EffectiveScore exposes a source's resolved score and method, fallback
// included. The allocation advisor reuses it.
func EffectiveScore(source models.ProteinSource) (float64, Method) {
	return resolveScore(source)
}

// Calculate turns a validated input into a result. It never fails: every
// branch of the score fallback produces a usable number.
func Calculate(input Input) Result {
	adjusted := input.StatedProtein
	var adjustedOut, discrepancyOut *float64

	if input.DVPercentage != nil && *input.DVPercentage > 0 {
		dvGrams := *input.DVPercentage / 100 * dailyValueGrams
		adjusted = dvGrams
		adjustedOut = &dvGrams

		diff := dvGrams - input.StatedProtein
		if diff < 0 {
			diff = -diff
		}
		if diff > dvDiscrepancyThreshold {
			discrepancyOut = &diff
		}
	}

	score, method := weightedScore(input.Allocations)

	qualityAdjusted := adjusted * score

	return Result{
		QualityAdjustedProtein: qualityAdjusted,
		// The denominator is deliberately the label's stated amount, not
		// the DV-derived one, so the percentage reflects quality relative
		// to the claim.
		ProteinQualityPercentage: qualityAdjusted / input.StatedProtein * 100,
		CalculationMethod:        method,
		ScoreUsed:                score,
		AdjustedProtein:          adjustedOut,
		DVDiscrepancy:            discrepancyOut,
	}
}

// weightedScore combines the per-source effective scores. Explicit
// percentages weight each source by percentage/100; without them every
// source contributes an equal 1/N share. The reported method is DIAAS when
// any contributing source resolved to DIAAS, else PDCAAS.
func weightedScore(allocations []Allocation) (float64, Method) {
	if len(allocations) == 1 {
		return resolveScore(allocations[0].Source)
	}

	var (
		total     float64
		usedDIAAS bool
	)
	equalShare := 1.0 / float64(len(allocations))

	for _, allocation := range allocations {
		score, method := resolveScore(allocation.Source)

		weight := equalShare
		if allocation.Percentage != nil {
			weight = *allocation.Percentage / 100
		}

		total += score * weight
		if method == MethodDIAAS {
			usedDIAAS = true
		}
	}

	method := MethodPDCAAS
	if usedDIAAS {
		method = MethodDIAAS
	}
	return total, method
}
