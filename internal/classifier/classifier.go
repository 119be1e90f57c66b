package classifier

import (
	"context"
	"fmt"
	"strings"

	"mood-insights-go/internal/config"
	"mood-insights-go/internal/logger"
)

// Classifier maps a piece of text onto a single emotion label.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
	Name() string
}

// New builds the classifier used for transcripts. USE_MOCK_LLM forces the
// local keyword classifier regardless of backend.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	retry := Retry{MaxRetries: cfg.MaxRetries, Timeout: cfg.Timeout}

	backend := strings.ToLower(cfg.Backend)
	if cfg.UseMock {
		logger.New().WithField("component", "classifier").Info("mock LLM mode ON - using local keyword classifier")
		backend = "local"
	}

	switch backend {
	case "", "gemini":
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, retry), nil
	case "openai":
		return NewOpenAI(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayModel, retry), nil
	case "local":
		lex, err := LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
		return NewKeyword(lex, nil), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}
