// Package normalize turns raw source rows into canonical records.
package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"crypto-lens/internal/domain"

	"github.com/shopspring/decimal"
)

// PriceLoad is the result of normalizing one price source. Skipped counts the
// rows excluded because their timestamp or price did not parse.
type PriceLoad struct {
	Points  domain.Series
	Skipped int
}

// PriceCSV reads a semicolon-delimited, comma-decimal price export. The first
// row is a header and is skipped; columns 0 and 1 are taken as timestamp and
// price regardless of header text, the rest are dropped.
func PriceCSV(r io.Reader) (PriceLoad, error) {
	cr := newReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return PriceLoad{}, fmt.Errorf("%w: empty price source", domain.ErrSchemaMismatch)
	}
	if err != nil {
		return PriceLoad{}, readErr(err)
	}
	if len(header) < 2 {
		return PriceLoad{}, fmt.Errorf("%w: price header has %d columns, need 2", domain.ErrSchemaMismatch, len(header))
	}

	var out PriceLoad
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return PriceLoad{}, readErr(err)
		}
		if isBlank(row) {
			continue
		}
		if len(row) < 2 {
			line, _ := cr.FieldPos(0)
			return PriceLoad{}, fmt.Errorf("%w: line %d has %d columns, need 2", domain.ErrSchemaMismatch, line, len(row))
		}

		ts, err := time.ParseInLocation(domain.TimestampLayout, strings.TrimSpace(row[0]), time.UTC)
		if err != nil {
			out.Skipped++
			continue
		}
		price, err := parseCommaDecimal(row[1])
		if err != nil {
			out.Skipped++
			continue
		}
		out.Points = append(out.Points, domain.PricePoint{Timestamp: ts, Price: price})
	}
	return out, nil
}

// Feed converts raw market-feed records. Unparseable timestamps are skipped
// and counted.
func Feed(records []domain.FeedRecord) PriceLoad {
	out := PriceLoad{Points: make(domain.Series, 0, len(records))}
	for _, rec := range records {
		ts, ok := ParseFeedTime(rec.Timestamp)
		if !ok {
			out.Skipped++
			continue
		}
		out.Points = append(out.Points, domain.PricePoint{
			Timestamp: ts,
			Price:     decimal.NewFromFloat(rec.Price),
		})
	}
	return out
}

// ParseFeedTime accepts Unix seconds, Unix milliseconds, RFC3339 and plain
// dates. Results are UTC.
func ParseFeedTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return time.Time{}, false
		}
		if n >= 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseCommaDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ",") > 1 || strings.Contains(raw, ".") {
		return decimal.Decimal{}, fmt.Errorf("ambiguous decimal %q", raw)
	}
	return decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

// readErr classifies reader failures: csv syntax problems are schema
// mismatches, anything else came from the underlying source.
func readErr(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %v", domain.ErrSchemaMismatch, err)
	}
	return domain.Unavailable("reader", 0, err)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
