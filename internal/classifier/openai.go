package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const openAISystemPrompt = "You classify the sentiment of crypto market messages. " +
	"Reply with exactly one word: POSITIVE, NEUTRAL or NEGATIVE. No punctuation, no explanation."

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIBackend asks a chat model for one of the three labels.
type OpenAIBackend struct {
	client LLMClient
	model  string
	tracer trace.Tracer
}

func NewOpenAIBackend(tracer trace.Tracer, client LLMClient, model string) *OpenAIBackend {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIBackend{client: client, model: model, tracer: tracer}
}

func (b *OpenAIBackend) Classify(ctx context.Context, text string) (string, error) {
	ctx, span := b.tracer.Start(ctx, "openai.classify")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", b.model))

	completion, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	reply = strings.Trim(reply, ".!\"'` \n")
	return reply, nil
}

type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
