package dataset

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"mood-insights-go/internal/aggregator"
	"mood-insights-go/internal/types"
)

const (
	labelsSheet  = "labels"
	summarySheet = "summary"
)

// Write saves labelled samples and their summary as an xlsx workbook.
func Write(path string, samples []types.Sample, sum aggregator.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", labelsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(labelsSheet, "A1", &[]any{"row", "text", "audio", "emotion"}); err != nil {
		return err
	}
	for i, s := range samples {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(labelsSheet, cell, &[]any{s.Row, s.Text, s.AudioPath, s.Emotion}); err != nil {
			return fmt.Errorf("write row %d: %w", s.Row, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	meta := [][]any{
		{"total", sum.Total},
		{"unknown_rate", sum.UnknownRate},
		{"dominant_label", sum.Dominant},
		{},
		{"label", "count"},
	}
	labels := make([]string, 0, len(sum.ByLabel))
	for l := range sum.ByLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		meta = append(meta, []any{l, sum.ByLabel[l]})
	}
	for i, row := range meta {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
