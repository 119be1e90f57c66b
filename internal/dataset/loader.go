package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

// Load reads samples from the first sheet of an xlsx workbook. Columns are
// found by header heuristics: a text/transcript column and an audio/file
// column. Relative audio paths resolve against the workbook's directory.
// Rows with neither text nor audio are skipped.
func Load(path string) ([]types.Sample, error) {
	log := logger.New().WithField("component", "dataset").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	textIdx, audioIdx := detectColumns(rows[0])
	if textIdx == -1 && audioIdx == -1 {
		return nil, fmt.Errorf("no text or audio column in header %q", rows[0])
	}
	log.WithField("text_idx", textIdx).WithField("audio_idx", audioIdx).Debug("detected sample columns")

	base := filepath.Dir(path)
	var out []types.Sample
	for i, r := range rows[1:] {
		s := types.Sample{Row: i + 2}
		if textIdx >= 0 && textIdx < len(r) {
			s.Text = strings.TrimSpace(r[textIdx])
		}
		if audioIdx >= 0 && audioIdx < len(r) {
			if a := strings.TrimSpace(r[audioIdx]); a != "" {
				if !filepath.IsAbs(a) {
					a = filepath.Join(base, a)
				}
				s.AudioPath = a
			}
		}
		if s.Text == "" && s.AudioPath == "" {
			continue
		}
		out = append(out, s)
	}
	log.WithField("samples", len(out)).Info("dataset loaded")
	return out, nil
}

func detectColumns(header []string) (textIdx, audioIdx int) {
	textIdx, audioIdx = -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "file") || strings.Contains(l, "recording") || strings.Contains(l, "path"):
			if audioIdx == -1 {
				audioIdx = i
			}
		case strings.Contains(l, "text") || strings.Contains(l, "transcript") || strings.Contains(l, "message") || strings.Contains(l, "sentence"):
			if textIdx == -1 {
				textIdx = i
			}
		}
	}
	return textIdx, audioIdx
}
