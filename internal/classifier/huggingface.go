package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	huggingFaceBaseURL = "https://api-inference.huggingface.co/models"
	DefaultHFModel     = "cardiffnlp/twitter-roberta-base-sentiment"
)

// HuggingFaceBackend calls the Hugging Face inference API for a hosted
// text-classification model.
type HuggingFaceBackend struct {
	client  *http.Client
	baseURL string
	model   string
	token   string
	tracer  trace.Tracer
}

func NewHuggingFaceBackend(tracer trace.Tracer, token, model string) *HuggingFaceBackend {
	if strings.TrimSpace(model) == "" {
		model = DefaultHFModel
	}
	return &HuggingFaceBackend{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: huggingFaceBaseURL,
		model:   model,
		token:   strings.TrimSpace(token),
		tracer:  tracer,
	}
}

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (b *HuggingFaceBackend) Classify(ctx context.Context, text string) (string, error) {
	ctx, span := b.tracer.Start(ctx, "huggingface.classify")
	defer span.End()
	span.SetAttributes(attribute.String("hf.model", b.model))

	payload, err := json.Marshal(map[string]any{
		"inputs":     text,
		"parameters": map[string]bool{"truncation": true},
		"options":    map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/"+b.model, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface API error %d: %s", resp.StatusCode, string(body))
	}

	scores, err := decodeHFScores(body)
	if err != nil {
		return "", err
	}
	return topLabel(scores)
}

// decodeHFScores accepts both the nested [[...]] shape returned for a single
// input and the flat [...] shape some models return.
func decodeHFScores(body []byte) ([]hfScore, error) {
	var nested [][]hfScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty huggingface response")
		}
		return nested[0], nil
	}
	var flat []hfScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode huggingface response: %w", err)
	}
	return flat, nil
}

func topLabel(scores []hfScore) (string, error) {
	if len(scores) == 0 {
		return "", fmt.Errorf("no scores in huggingface response")
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Label, nil
}
