package classifier

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mood-insights-go/internal/types"
)

// QuickMood normalizes a mood the user picked directly.
type QuickMood struct{}

func (QuickMood) Name() string { return "quick_mood" }

func (QuickMood) Classify(_ context.Context, mood string) (string, error) {
	return NormalizeMood(mood)
}

// NormalizeMood title-cases a picked mood key: "joy" and "JOY" become "Joy".
func NormalizeMood(mood string) (string, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return "", types.InvalidInput("classifier.quick_mood", "mood is required")
	}
	// Caser is stateful, so one per call.
	return cases.Title(language.English).String(mood), nil
}
