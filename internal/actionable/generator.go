package actionable

import (
	"fmt"

	"mood-insights-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

var negative = map[string]bool{"Sadness": true, "Anger": true, "Fear": true, "Disgust": true}

// Generate turns a batch label summary into one recommendation.
func Generate(sum aggregator.Summary) ActionCard {
	if sum.Total == 0 {
		return ActionCard{
			Insight: "No samples were labelled",
			Action:  "Check the workbook has a text or audio column",
			Impact:  "Nothing to report",
		}
	}
	if sum.UnknownRate >= 0.35 {
		return ActionCard{
			Insight: fmt.Sprintf("High unknown rate (%.0f%%)", sum.UnknownRate*100),
			Action:  "Check ffmpeg, the speech model and classifier credentials; see mood_stage_failures_total",
			Impact:  "Labels are unreliable until the failing stage is fixed",
		}
	}
	share := float64(sum.ByLabel[sum.Dominant]) / float64(sum.Total)
	if negative[sum.Dominant] && share >= 0.4 {
		return ActionCard{
			Insight: fmt.Sprintf("%s dominates (%.0f%% of samples)", sum.Dominant, share*100),
			Action:  "Have someone review the flagged samples and follow up",
			Impact:  "Early response to negative sentiment",
		}
	}
	return ActionCard{
		Insight: fmt.Sprintf("No strong negative pattern; most common mood is %s", sum.Dominant),
		Action:  "Monitor and collect more data",
		Impact:  "Low immediate intervention",
	}
}
