// Package series merges and slices canonical price series.
package series

import (
	"slices"

	"crypto-lens/internal/domain"
)

// Merge combines a historical series with a recently fetched one into a new
// ascending series with one point per timestamp. On a timestamp collision the
// recent value wins; within a single input the later point wins. Neither
// input is modified.
func Merge(historical, recent domain.Series) domain.Series {
	combined := make(domain.Series, 0, len(historical)+len(recent))
	combined = append(combined, historical...)
	combined = append(combined, recent...)

	slices.SortStableFunc(combined, func(a, b domain.PricePoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	out := combined[:0]
	for _, p := range combined {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(p.Timestamp) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// Select returns the points of s that satisfy every bound in q.
func Select(s domain.Series, q domain.PriceQuery) domain.Series {
	out := make(domain.Series, 0, len(s))
	for _, p := range s {
		if q.From != nil && p.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && p.Timestamp.After(*q.To) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Latest returns the last point of an ordered series.
func Latest(s domain.Series) (domain.PricePoint, bool) {
	if len(s) == 0 {
		return domain.PricePoint{}, false
	}
	return s[len(s)-1], true
}
