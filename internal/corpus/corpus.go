// Package corpus filters and aggregates the labeled sentiment corpus.
package corpus

import (
	"fmt"
	"sort"
	"strings"

	"crypto-lens/internal/domain"
)

// Filter returns the messages that pass every non-empty facet of c, in input
// order. The result is never nil.
func Filter(messages []domain.SentimentMessage, c domain.FilterCriteria) []domain.SentimentMessage {
	keyword := strings.ToLower(strings.TrimSpace(c.Keyword))

	out := make([]domain.SentimentMessage, 0, len(messages))
	for _, m := range messages {
		if len(c.Channels) > 0 {
			if _, ok := c.Channels[m.Channel]; !ok {
				continue
			}
		}
		if len(c.Labels) > 0 {
			if _, ok := c.Labels[m.Label]; !ok {
				continue
			}
		}
		if keyword != "" && !strings.Contains(strings.ToLower(m.Text), keyword) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Aggregate counts messages per label. A label outside the fixed set means
// the corpus bypassed normalization and is reported, not skipped.
func Aggregate(messages []domain.SentimentMessage) (domain.SentimentDistribution, error) {
	var d domain.SentimentDistribution
	for i, m := range messages {
		switch m.Label {
		case domain.LabelPositive:
			d.Positive++
		case domain.LabelNeutral:
			d.Neutral++
		case domain.LabelNegative:
			d.Negative++
		default:
			return domain.SentimentDistribution{}, fmt.Errorf("message %d: %w: %q", i, domain.ErrInvalidLabel, m.Label)
		}
	}
	return d, nil
}

// Channels lists the distinct channels present in messages, sorted.
func Channels(messages []domain.SentimentMessage) []string {
	seen := make(map[string]struct{})
	for _, m := range messages {
		seen[m.Channel] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
