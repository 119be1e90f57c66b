package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

// OpenAI classifies text through any OpenAI-compatible chat completion
// gateway.
type OpenAI struct {
	client *openai.Client
	model  string
	retry  Retry
}

// NewOpenAI points the client at baseURL (for example https://gateway/v1)
// when set, otherwise at the public OpenAI API.
func NewOpenAI(baseURL, apiKey, model string, retry Retry) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, retry: retry}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Classify(ctx context.Context, text string) (string, error) {
	const op = "classifier.openai"
	if strings.TrimSpace(text) == "" {
		return "", types.InvalidInput(op, "text is empty")
	}
	log := logger.New().WithField("component", "classifier-openai")

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(text)},
		},
		MaxTokens: 8,
	}

	var label string
	start := time.Now()
	err := o.retry.do(ctx, log, func(ctx context.Context) error {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("response has no choices"))
		}
		if label = cleanLabel(resp.Choices[0].Message.Content); label == "" {
			return backoff.Permanent(errors.New("model returned an empty label"))
		}
		return nil
	})
	if err != nil {
		return "", types.ClassificationError(op, err)
	}

	log.WithField("emotion", label).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("openai classification complete")
	return label, nil
}

// classifyOpenAIError keeps 5xx and transport failures retryable.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode < 500 {
		return backoff.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 && reqErr.HTTPStatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
