package history

import (
	"sort"

	"protiq/models"
)

// SourceUsage counts how often one source name appears across the history.
type SourceUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Statistics is a read-only summary derived from a history snapshot. It is
// never persisted; callers recompute it on demand.
type Statistics struct {
	TotalCalculations      int           `json:"totalCalculations"`
	AverageStatedProtein   float64       `json:"averageStatedProtein"`
	AverageQualityAdjusted float64       `json:"averageQualityAdjusted"`
	MostUsedSources        []SourceUsage `json:"mostUsedSources"`
}

const mostUsedLimit = 5

// ComputeStatistics aggregates a history snapshot. Averages are zero for an
// empty history. Most-used sources rank by raw occurrence count of each
// distinct source name, ties broken by first-encountered order, at most
// five entries.
func ComputeStatistics(records []models.CalculationRecord) Statistics {
	stats := Statistics{
		TotalCalculations: len(records),
		MostUsedSources:   []SourceUsage{},
	}
	if len(records) == 0 {
		return stats
	}

	var statedTotal, adjustedTotal float64
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, record := range records {
		statedTotal += record.StatedProtein
		adjustedTotal += record.DigestibleProtein

		for _, source := range record.Sources {
			if _, seen := counts[source.SourceName]; !seen {
				firstSeen[source.SourceName] = order
				order++
			}
			counts[source.SourceName]++
		}
	}

	stats.AverageStatedProtein = statedTotal / float64(len(records))
	stats.AverageQualityAdjusted = adjustedTotal / float64(len(records))

	usages := make([]SourceUsage, 0, len(counts))
	for name, count := range counts {
		usages = append(usages, SourceUsage{Name: name, Count: count})
	}
	sort.SliceStable(usages, func(i, j int) bool {
		if usages[i].Count != usages[j].Count {
			return usages[i].Count > usages[j].Count
		}
		return firstSeen[usages[i].Name] < firstSeen[usages[j].Name]
	})

	if len(usages) > mostUsedLimit {
		usages = usages[:mostUsedLimit]
	}
	stats.MostUsedSources = usages

	return stats
}
