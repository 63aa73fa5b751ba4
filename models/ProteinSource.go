package models

import (
	"regexp"
	"strings"
)

// Category classifies a protein source. "all" is a filter value only and is
// never stored on a record.
type Category string

const (
	CategoryMeat       Category = "meat"
	CategoryDairy      Category = "dairy"
	CategoryPlant      Category = "plant"
	CategorySupplement Category = "supplement"
	CategoryOther      Category = "other"
	CategoryAll        Category = "all"
)

// ValidCategory reports whether the value is a storable category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryMeat, CategoryDairy, CategoryPlant, CategorySupplement, CategoryOther:
		return true
	}
	return false
}

// AnimalDerived reports whether the category covers animal-based sources,
// including concentrated supplements such as whey.
func (c Category) AnimalDerived() bool {
	switch c {
	case CategoryMeat, CategoryDairy, CategorySupplement:
		return true
	}
	return false
}

// ProteinSource is one row of the reference table. Instances are immutable
// after catalog construction.
type ProteinSource struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	DIAASScore  *float64 `json:"diaas_score,omitempty" yaml:"diaas"`
	PDCAASScore *float64 `json:"pdcaas_score,omitempty" yaml:"pdcaas"`
	Description string   `json:"description,omitempty" yaml:"description"`
}

// ScoreKind identifies which quality metric a source carries.
type ScoreKind int

const (
	// ScoreUnset marks a source with neither DIAAS nor PDCAAS data.
	ScoreUnset ScoreKind = iota
	// ScoreDIAAS marks a source scored by DIAAS.
	ScoreDIAAS
	// ScorePDCAAS marks a source scored only by PDCAAS.
	ScorePDCAAS
)

// Score is the resolved quality metric of a source. DIAAS wins whenever both
// metrics are present; an unset score carries a zero value and the caller
// decides the fallback policy.
type Score struct {
	Kind  ScoreKind
	Value float64
}

// Score resolves the preferred quality metric for the source.
func (s ProteinSource) Score() Score {
	switch {
	case s.DIAASScore != nil:
		return Score{Kind: ScoreDIAAS, Value: *s.DIAASScore}
	case s.PDCAASScore != nil:
		return Score{Kind: ScorePDCAAS, Value: *s.PDCAASScore}
	default:
		return Score{Kind: ScoreUnset}
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the stable identifier for a source name: lowercase with runs
// of non-alphanumeric characters collapsed to a single hyphen.
func Slug(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}
