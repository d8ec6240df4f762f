package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the canonical day/month/year hour:minute layout used by
// the historical CSV exports.
const TimestampLayout = "02/01/2006 15:04"

// PricePoint is a single canonical price observation.
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// Series is a chronologically ordered run of price points with at most one
// point per timestamp.
type Series []PricePoint

// FeedRecord is a raw record from a recent market-data feed. Timestamp holds
// the provider's value verbatim: Unix seconds, Unix milliseconds, RFC3339 or
// a plain date.
type FeedRecord struct {
	Timestamp string
	Price     float64
}

// PriceQuery narrows a series by explicit, typed bounds. Nil fields do not
// restrict.
type PriceQuery struct {
	From     *time.Time
	To       *time.Time
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// IsZero reports whether the query restricts nothing.
func (q PriceQuery) IsZero() bool {
	return q.From == nil && q.To == nil && q.MinPrice == nil && q.MaxPrice == nil
}
