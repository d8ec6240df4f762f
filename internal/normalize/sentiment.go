package normalize

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crypto-lens/internal/domain"
)

var sentimentHeaderNames = map[string]struct{}{
	"sentiment_label": {},
	"sentiment":       {},
	"label":           {},
}

// NamedReader pairs a corpus file with the name used in error messages.
type NamedReader struct {
	Name   string
	Reader io.Reader
}

// SentimentCSV reads a semicolon-delimited channel;text;sentiment_label
// export. A header row, when present, is skipped. Whether the file carries a
// leading row-index column is decided once, from the header or the first data
// row, and every later row must have the same width. Unknown labels fail the
// whole load.
func SentimentCSV(r io.Reader) ([]domain.SentimentMessage, error) {
	cr := newReader(r)

	var out []domain.SentimentMessage
	width := 0
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr(err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if isSentimentHeader(row[len(row)-1]) {
				if w, err := sentimentWidth(row); err == nil {
					width = w
				}
				continue
			}
		}
		if width == 0 {
			if width, err = sentimentWidth(row); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if len(row) != width {
			return nil, fmt.Errorf("line %d: %w: expected %d columns, got %d", line, domain.ErrSchemaMismatch, width, len(row))
		}

		fields := row[width-3:]
		label, err := domain.ParseLabel(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		out = append(out, domain.SentimentMessage{
			Channel: strings.TrimSpace(fields[0]),
			Text:    fields[1],
			Label:   label,
		})
	}
	return out, nil
}

// SentimentCorpus concatenates corpus files in the order given.
func SentimentCorpus(files ...NamedReader) ([]domain.SentimentMessage, error) {
	var corpus []domain.SentimentMessage
	for _, f := range files {
		msgs, err := SentimentCSV(f.Reader)
		if err != nil {
			return nil, fmt.Errorf("corpus file %s: %w", f.Name, err)
		}
		corpus = append(corpus, msgs...)
	}
	if corpus == nil {
		corpus = []domain.SentimentMessage{}
	}
	return corpus, nil
}

// sentimentWidth reports the column count of a file from its first row:
// 3 for channel;text;sentiment_label, 4 when a row-index column leads.
func sentimentWidth(row []string) (int, error) {
	switch {
	case len(row) == 3:
		return 3, nil
	case len(row) == 4 && isIndexCell(row[0]):
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: expected 3 columns (channel;text;sentiment_label), got %d", domain.ErrSchemaMismatch, len(row))
	}
}

func isIndexCell(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, err := strconv.Atoi(v)
	return err == nil
}

func isSentimentHeader(v string) bool {
	_, ok := sentimentHeaderNames[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
