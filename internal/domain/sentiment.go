package domain

import (
	"fmt"
	"strings"
)

type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNeutral  Label = "NEUTRAL"
	LabelNegative Label = "NEGATIVE"
)

// Labels lists the fixed label set in display order.
var Labels = []Label{LabelPositive, LabelNeutral, LabelNegative}

// labelAliases maps upper-cased spellings found in the exports to the
// canonical label. The French forms come from older corpus files.
var labelAliases = map[string]Label{
	"POSITIVE": LabelPositive,
	"NEUTRAL":  LabelNeutral,
	"NEGATIVE": LabelNegative,
	"POSITIF":  LabelPositive,
	"NEUTRE":   LabelNeutral,
	"NÉGATIF":  LabelNegative,
	"NEGATIF":  LabelNegative,
}

func (l Label) IsValid() bool {
	switch l {
	case LabelPositive, LabelNeutral, LabelNegative:
		return true
	}
	return false
}

// ParseLabel maps a raw label onto the fixed set. Anything else is an
// ErrInvalidLabel.
func ParseLabel(raw string) (Label, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if l, ok := labelAliases[key]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLabel, raw)
}

// SentimentMessage is one pre-labeled message from a channel export.
type SentimentMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
	Label   Label  `json:"sentiment_label"`
}

// SentimentDistribution always carries all three categories.
type SentimentDistribution struct {
	Positive int `json:"POSITIVE"`
	Neutral  int `json:"NEUTRAL"`
	Negative int `json:"NEGATIVE"`
}

func (d SentimentDistribution) Total() int {
	return d.Positive + d.Neutral + d.Negative
}

// FilterCriteria holds the independent filter facets. Empty sets and an
// empty keyword do not restrict.
type FilterCriteria struct {
	Channels map[string]struct{}
	Labels   map[Label]struct{}
	Keyword  string
}

// NewFilterCriteria builds criteria from raw facet values. Labels are parsed
// strictly; blank channel names are ignored.
func NewFilterCriteria(channels []string, labels []string, keyword string) (FilterCriteria, error) {
	c := FilterCriteria{Keyword: keyword}
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if c.Channels == nil {
			c.Channels = make(map[string]struct{}, len(channels))
		}
		c.Channels[ch] = struct{}{}
	}
	for _, raw := range labels {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		l, err := ParseLabel(raw)
		if err != nil {
			return FilterCriteria{}, err
		}
		if c.Labels == nil {
			c.Labels = make(map[Label]struct{}, len(labels))
		}
		c.Labels[l] = struct{}{}
	}
	return c, nil
}
