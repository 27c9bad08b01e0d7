// Package filter evaluates the list-page filter criteria against a
// catalog array. Every criterion is optional; absent criteria are
// always satisfied and the set composes by short-circuit AND.
package filter

import (
	"strings"

	"motoshop/internal/catalog"
	"motoshop/internal/models"
)

// Criteria is the flat set of optional predicates a list page offers.
// Nil pointers and empty strings mean "no filtering on this field".
type Criteria struct {
	Term        string
	Category    string
	Active      *bool
	PriceMin    *float64
	PriceMax    *float64
	DurationMin *int   // services only
	DurationMax *int   // services only
	StockBucket string // parts only
}

// MatchService reports whether a service satisfies every set criterion.
func (c Criteria) MatchService(s models.Service) bool {
	if !matchTerm(c.Term, s.Name, s.Code, s.Category, s.Description) {
		return false
	}
	if c.Category != "" && s.Category != c.Category {
		return false
	}
	if c.Active != nil && s.Active != *c.Active {
		return false
	}
	if !inFloatRange(s.Price, c.PriceMin, c.PriceMax) {
		return false
	}
	if c.DurationMin != nil && s.DurationMin < *c.DurationMin {
		return false
	}
	if c.DurationMax != nil && s.DurationMin > *c.DurationMax {
		return false
	}
	return true
}

// MatchPart reports whether a part satisfies every set criterion.
func (c Criteria) MatchPart(p models.Part) bool {
	if !matchTerm(c.Term, p.Name, p.Code, p.Category, p.Description) {
		return false
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if c.Active != nil && p.Active != *c.Active {
		return false
	}
	if !inFloatRange(p.Price, c.PriceMin, c.PriceMax) {
		return false
	}
	if c.StockBucket != "" {
		if string(catalog.StockStatus(p.Stock, p.MinStock).Bucket) != c.StockBucket {
			return false
		}
	}
	return true
}

// Services returns the subset of services matching the criteria.
func Services(items []models.Service, c Criteria) []models.Service {
	out := make([]models.Service, 0, len(items))
	for _, s := range items {
		if c.MatchService(s) {
			out = append(out, s)
		}
	}
	return out
}

// Parts returns the subset of parts matching the criteria.
func Parts(items []models.Part, c Criteria) []models.Part {
	out := make([]models.Part, 0, len(items))
	for _, p := range items {
		if c.MatchPart(p) {
			out = append(out, p)
		}
	}
	return out
}

// matchTerm does a case-insensitive substring search; a hit in any
// field satisfies the predicate.
func matchTerm(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// inFloatRange checks inclusive bounds; nil bounds always pass.
func inFloatRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
