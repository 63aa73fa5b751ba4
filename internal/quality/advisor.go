package quality

import (
	"math"
	"strings"

	"protiq/models"
)

// minAdvisorWeight keeps a zero-scored source from receiving a 0% share in
// the quality-weighted fallback. Carried over as-is for behavioral
// compatibility.
const minAdvisorWeight = 0.1

// commonCombination is a named pairing with a fixed, nutritionist-chosen
// split. Terms match source names by case-insensitive substring; a
// combination only applies when its term count equals the selection size.
type commonCombination struct {
	name        string
	terms       []string
	percentages []float64
}

// Table order is priority order; the first full match wins.
var commonCombinations = []commonCombination{
	{name: "chicken and rice", terms: []string{"chicken", "rice"}, percentages: []float64{70, 30}},
	{name: "rice and beans", terms: []string{"rice", "bean"}, percentages: []float64{50, 50}},
	{name: "lentils and rice", terms: []string{"lentil", "rice"}, percentages: []float64{50, 50}},
	{name: "peanut butter on bread", terms: []string{"peanut", "bread"}, percentages: []float64{40, 60}},
	{name: "oats and milk", terms: []string{"oat", "milk"}, percentages: []float64{40, 60}},
	{name: "whey and oats", terms: []string{"whey", "oat"}, percentages: []float64{60, 40}},
}

// SuggestAllocation proposes a percentage split for the given sources. The
// result has the same length and order as the input and sums to exactly 100
// for any non-empty selection. It is advisory only; the calculator never
// invokes it.
func SuggestAllocation(sources []models.ProteinSource) []float64 {
	switch len(sources) {
	case 0:
		return nil
	case 1:
		return []float64{100}
	}

	if percentages, ok := matchCommonCombination(sources); ok {
		return percentages
	}

	if percentages, ok := complementaryPairSplit(sources); ok {
		return percentages
	}

	return qualityWeightedSplit(sources)
}

// matchCommonCombination tries each table entry against the selection. Every
// term must claim a distinct source, and every source must be claimed.
func matchCommonCombination(sources []models.ProteinSource) ([]float64, bool) {
	for _, combination := range commonCombinations {
		if len(combination.terms) != len(sources) {
			continue
		}

		assigned := make([]float64, len(sources))
		claimed := make([]bool, len(sources))
		matchedAll := true

		for termIdx, term := range combination.terms {
			found := false
			for srcIdx, source := range sources {
				if claimed[srcIdx] {
					continue
				}
				if strings.Contains(strings.ToLower(source.Name), term) {
					assigned[srcIdx] = combination.percentages[termIdx]
					claimed[srcIdx] = true
					found = true
					break
				}
			}
			if !found {
				matchedAll = false
				break
			}
		}

		if matchedAll {
			return assigned, true
		}
	}
	return nil, false
}

// complementaryPairSplit applies the 70/30 plant-plus-animal heuristic to
// two-source selections, animal-heavy side first.
func complementaryPairSplit(sources []models.ProteinSource) ([]float64, bool) {
	if len(sources) != 2 {
		return nil, false
	}

	first, second := sources[0].Category, sources[1].Category
	switch {
	case first.AnimalDerived() && second == models.CategoryPlant:
		return []float64{70, 30}, true
	case first == models.CategoryPlant && second.AnimalDerived():
		return []float64{30, 70}, true
	}
	return nil, false
}

// qualityWeightedSplit normalizes each source's effective score into a
// percentage, rounds to one decimal, and absorbs the rounding residual into
// the largest entry so the total is exactly 100.
func qualityWeightedSplit(sources []models.ProteinSource) []float64 {
	weights := make([]float64, len(sources))
	var total float64
	for idx, source := range sources {
		score, _ := EffectiveScore(source)
		weights[idx] = math.Max(score, minAdvisorWeight)
		total += weights[idx]
	}

	percentages := make([]float64, len(sources))
	var sum float64
	largest := 0
	for idx, weight := range weights {
		percentages[idx] = math.Round(weight/total*100*10) / 10
		sum += percentages[idx]
		if percentages[idx] > percentages[largest] {
			largest = idx
		}
	}

	residual := math.Round((100-sum)*10) / 10
	percentages[largest] = math.Round((percentages[largest]+residual)*10) / 10

	return percentages
}
