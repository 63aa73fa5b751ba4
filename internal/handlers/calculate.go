package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	applog "protiq/internal/log"
	"protiq/internal/quality"
	"protiq/models"
)

// percentageSumTolerance allows for floating point drift when explicit
// source percentages are checked against 100.
const percentageSumTolerance = 0.01

type calculateSourceRequest struct {
	ID         string   `json:"id"`
	Percentage *float64 `json:"percentage,omitempty"`
}

type calculateRequest struct {
	StatedProtein float64                  `json:"statedProtein"`
	DVPercentage  *float64                 `json:"dvPercentage,omitempty"`
	Sources       []calculateSourceRequest `json:"sources"`
}

type calculateResponse struct {
	Result quality.Result           `json:"result"`
	Record models.CalculationRecord `json:"record"`
}

// Calculate validates a calculation request, runs the quality math, and
// appends the outcome to the visitor's history.
func Calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sources == nil || records == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	owner, ok := ownerToken(r)
	if !ok {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	var payload calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid calculate payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input, fields := buildCalculationInput(payload)
	if len(fields) > 0 {
		applog.Debug(r.Context(), "calculate request failed validation", "fields", len(fields))
		writeValidationError(w, fields)
		return
	}

	result := quality.Calculate(input)

	record := models.CalculationRecord{
		OwnerToken:              owner,
		StatedProtein:           input.StatedProtein,
		DVPercentage:            input.DVPercentage,
		DigestibleProtein:       result.QualityAdjustedProtein,
		DigestibilityPercentage: result.ProteinQualityPercentage,
		CalculationMethod:       string(result.CalculationMethod),
	}
	for _, allocation := range input.Allocations {
		record.Sources = append(record.Sources, models.RecordSource{
			SourceID:       allocation.Source.ID,
			SourceName:     allocation.Source.Name,
			SourceCategory: allocation.Source.Category,
			Percentage:     allocation.Percentage,
		})
	}

	if err := records.Save(r.Context(), &record); err != nil {
		applog.Error(r.Context(), "failed to save calculation record", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save calculation")
		return
	}

	writeJSON(w, http.StatusCreated, calculateResponse{Result: result, Record: record})
}

// buildCalculationInput applies the caller-side validation rules: the
// calculator itself assumes well-formed input and is never handed anything
// that fails here.
func buildCalculationInput(payload calculateRequest) (quality.Input, map[string]string) {
	fields := make(map[string]string)

	if math.IsNaN(payload.StatedProtein) || math.IsInf(payload.StatedProtein, 0) || payload.StatedProtein <= 0 {
		fields["statedProtein"] = "stated protein must be a positive number of grams"
	}

	if payload.DVPercentage != nil {
		dv := *payload.DVPercentage
		if math.IsNaN(dv) || dv < 0 || dv > 1000 {
			fields["dvPercentage"] = "daily value percentage must be between 0 and 1000"
		}
	}

	if len(payload.Sources) == 0 {
		fields["sources"] = "select at least one protein source"
		return quality.Input{}, fields
	}

	withPercentage := 0
	var percentageSum float64
	allocations := make([]quality.Allocation, 0, len(payload.Sources))

	for idx, requested := range payload.Sources {
		source, ok := sources.FindByID(requested.ID)
		if !ok {
			fields[fmt.Sprintf("sources[%d]", idx)] = fmt.Sprintf("unknown protein source %q", requested.ID)
			continue
		}

		if requested.Percentage != nil {
			pct := *requested.Percentage
			if math.IsNaN(pct) || pct < 0 || pct > 100 {
				fields[fmt.Sprintf("sources[%d].percentage", idx)] = "percentage must be between 0 and 100"
			} else {
				withPercentage++
				percentageSum += pct
			}
		}

		allocations = append(allocations, quality.Allocation{
			Source:     source,
			Percentage: requested.Percentage,
		})
	}

	if withPercentage > 0 {
		if withPercentage != len(payload.Sources) {
			fields["sources"] = "either give every source a percentage or none of them"
		} else if math.Abs(percentageSum-100) > percentageSumTolerance {
			fields["sources"] = fmt.Sprintf("percentages must sum to 100, got %.2f", percentageSum)
		}
	}

	if len(fields) > 0 {
		return quality.Input{}, fields
	}

	return quality.Input{
		StatedProtein: payload.StatedProtein,
		DVPercentage:  payload.DVPercentage,
		Allocations:   allocations,
	}, nil
}
