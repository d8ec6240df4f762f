package corpus

import (
	"errors"
	"reflect"
	"testing"

	"crypto-lens/internal/domain"
)

func sample() []domain.SentimentMessage {
	return []domain.SentimentMessage{
		{Channel: "c1", Text: "btc up", Label: domain.LabelPositive},
		{Channel: "c1", Text: "eth down", Label: domain.LabelNegative},
		{Channel: "c2", Text: "flat", Label: domain.LabelNeutral},
		{Channel: "c2", Text: "BTC moon", Label: domain.LabelPositive},
		{Channel: "c3", Text: "sideways btc", Label: domain.LabelNeutral},
	}
}

func criteria(t *testing.T, channels, labels []string, keyword string) domain.FilterCriteria {
	t.Helper()
	c, err := domain.NewFilterCriteria(channels, labels, keyword)
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	return c
}

func TestFilterEmptyCriteriaIsIdentity(t *testing.T) {
	msgs := sample()
	got := Filter(msgs, domain.FilterCriteria{})
	if !reflect.DeepEqual(got, msgs) {
		t.Fatalf("expected identity, got %+v", got)
	}
}

func TestFilterEndToEndChannelScenario(t *testing.T) {
	msgs := []domain.SentimentMessage{
		{Channel: "c1", Text: "btc up", Label: domain.LabelPositive},
		{Channel: "c1", Text: "eth down", Label: domain.LabelNegative},
		{Channel: "c2", Text: "flat", Label: domain.LabelNeutral},
	}

	got := Filter(msgs, criteria(t, []string{"c1"}, nil, ""))
	if !reflect.DeepEqual(got, msgs[:2]) {
		t.Fatalf("expected first two records, got %+v", got)
	}

	dist, err := Aggregate(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.SentimentDistribution{Positive: 1, Neutral: 0, Negative: 1}
	if dist != want {
		t.Fatalf("expected %+v, got %+v", want, dist)
	}
}

func TestFilterKeywordIsCaseInsensitive(t *testing.T) {
	got := Filter(sample(), criteria(t, nil, nil, "  Btc "))
	if len(got) != 3 {
		t.Fatalf("expected 3 btc messages, got %d", len(got))
	}
	if got[0].Text != "btc up" || got[1].Text != "BTC moon" || got[2].Text != "sideways btc" {
		t.Fatalf("expected input order preserved, got %+v", got)
	}
}

func TestFilterConjunction(t *testing.T) {
	got := Filter(sample(), criteria(t, []string{"c2", "c3"}, []string{"NEUTRAL"}, "side"))
	if len(got) != 1 || got[0].Channel != "c3" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFilterFacetOrderCommutes(t *testing.T) {
	msgs := sample()
	byChannel := criteria(t, []string{"c1", "c2"}, nil, "")
	byLabel := criteria(t, nil, []string{"POSITIVE"}, "")

	a := Filter(Filter(msgs, byChannel), byLabel)
	b := Filter(Filter(msgs, byLabel), byChannel)
	both := Filter(msgs, criteria(t, []string{"c1", "c2"}, []string{"POSITIVE"}, ""))

	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, both) {
		t.Fatalf("facet order changed the result: %+v vs %+v vs %+v", a, b, both)
	}
}

func TestFilterEmptyResultIsNonNil(t *testing.T) {
	got := Filter(sample(), criteria(t, []string{"nope"}, nil, ""))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if got := Filter(nil, domain.FilterCriteria{}); got == nil {
		t.Fatal("expected non-nil result for nil input")
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	msgs := sample()
	before := append([]domain.SentimentMessage(nil), msgs...)
	_ = Filter(msgs, criteria(t, []string{"c2"}, nil, ""))
	if !reflect.DeepEqual(msgs, before) {
		t.Fatal("filter mutated its input")
	}
}

func TestAggregateSumsToLength(t *testing.T) {
	for _, msgs := range [][]domain.SentimentMessage{nil, sample(), sample()[:1]} {
		d, err := Aggregate(msgs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Positive+d.Neutral+d.Negative != len(msgs) {
			t.Fatalf("distribution %+v does not sum to %d", d, len(msgs))
		}
	}
	d, _ := Aggregate(nil)
	if d != (domain.SentimentDistribution{}) {
		t.Fatalf("expected all-zero distribution, got %+v", d)
	}
}

func TestAggregateRejectsInvalidLabel(t *testing.T) {
	msgs := append(sample(), domain.SentimentMessage{Channel: "c9", Text: "?", Label: "bullish"})
	if _, err := Aggregate(msgs); !errors.Is(err, domain.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestChannels(t *testing.T) {
	got := Channels(sample())
	if !reflect.DeepEqual(got, []string{"c1", "c2", "c3"}) {
		t.Fatalf("unexpected channels: %v", got)
	}
}
