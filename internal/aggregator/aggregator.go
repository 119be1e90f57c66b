package aggregator

import (
	"sort"

	"mood-insights-go/internal/types"
)

// Summary is the label distribution of a batch run.
type Summary struct {
	Total       int            `json:"total"`
	ByLabel     map[string]int `json:"by_label"`
	UnknownRate float64        `json:"unknown_rate"`
	Dominant    string         `json:"dominant_label,omitempty"`
}

// Aggregate counts labels. Samples without a label count as Unknown. The
// dominant label ignores Unknown; ties go to the alphabetically first label.
func Aggregate(samples []types.Sample) Summary {
	s := Summary{Total: len(samples), ByLabel: map[string]int{}}
	for _, r := range samples {
		label := r.Emotion
		if label == "" {
			label = types.Unknown
		}
		s.ByLabel[label]++
	}
	if s.Total > 0 {
		s.UnknownRate = float64(s.ByLabel[types.Unknown]) / float64(s.Total)
	}

	labels := make([]string, 0, len(s.ByLabel))
	for l := range s.ByLabel {
		if l != types.Unknown {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if s.ByLabel[labels[i]] != s.ByLabel[labels[j]] {
			return s.ByLabel[labels[i]] > s.ByLabel[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > 0 {
		s.Dominant = labels[0]
	}
	return s
}
