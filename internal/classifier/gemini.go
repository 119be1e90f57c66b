package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini classifies text with the generateContent REST endpoint.
type Gemini struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Retry      Retry
}

func NewGemini(apiKey, model, baseURL string, retry Retry) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &Gemini{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Retry:      retry,
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Classify(ctx context.Context, text string) (string, error) {
	const op = "classifier.gemini"
	if strings.TrimSpace(text) == "" {
		return "", types.InvalidInput(op, "text is empty")
	}
	log := logger.New().WithField("component", "classifier-gemini")

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": Prompt(text)}}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", types.ClassificationError(op, err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, g.Model)

	var label string
	start := time.Now()
	err = g.Retry.do(ctx, log, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.APIKey)

		resp, err := g.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if err := checkStatus(resp.StatusCode, body); err != nil {
			return err
		}

		raw, err := extractCandidateText(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if label = cleanLabel(raw); label == "" {
			return backoff.Permanent(errors.New("model returned an empty label"))
		}
		return nil
	})
	if err != nil {
		return "", types.ClassificationError(op, err)
	}

	log.WithField("emotion", label).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("gemini classification complete")
	return label, nil
}

// extractCandidateText reads candidates[0].content.parts[0].text.
func extractCandidateText(body []byte) (string, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}

	candidates, ok := obj["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", errors.New("response has no candidates")
	}
	c0, _ := candidates[0].(map[string]any)
	if c0 == nil {
		return "", errors.New("candidate is not an object")
	}
	content, _ := c0["content"].(map[string]any)
	if content == nil {
		return "", errors.New("candidate has no content")
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", errors.New("content has no parts")
	}
	p0, _ := parts[0].(map[string]any)
	if p0 == nil {
		return "", errors.New("part is not an object")
	}
	text, ok := p0["text"].(string)
	if !ok {
		return "", errors.New("part has no text")
	}
	return text, nil
}
