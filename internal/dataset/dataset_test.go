package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mood-insights-go/internal/aggregator"
	"mood-insights-go/internal/types"
)

func writeSheet(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadDetectsColumns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "samples.xlsx")
	writeSheet(t, in, [][]any{
		{"id", "Customer Message", "Recording File"},
		{"1", "I love this place", ""},
		{"2", "", "clips/a.webm"},
		{"3", "", ""},
		{"4", "so melancholy", "/abs/b.wav"},
	})

	samples, err := Load(in)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, types.Sample{Row: 2, Text: "I love this place"}, samples[0])
	assert.Equal(t, types.Sample{Row: 3, AudioPath: filepath.Join(dir, "clips/a.webm")}, samples[1])
	assert.Equal(t, types.Sample{Row: 5, Text: "so melancholy", AudioPath: "/abs/b.wav"}, samples[2])
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)

	headerOnly := filepath.Join(dir, "header.xlsx")
	writeSheet(t, headerOnly, [][]any{{"text"}})
	_, err = Load(headerOnly)
	assert.Error(t, err)

	noColumns := filepath.Join(dir, "nocols.xlsx")
	writeSheet(t, noColumns, [][]any{{"id", "score"}, {"1", "2"}})
	_, err = Load(noColumns)
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "labeled.xlsx")
	samples := []types.Sample{
		{Row: 2, Text: "great day", Emotion: "Joy"},
		{Row: 3, AudioPath: "/tmp/a.webm", Emotion: types.Unknown},
	}
	require.NoError(t, Write(out, samples, aggregator.Aggregate(samples)))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(labelsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"row", "text", "audio", "emotion"}, rows[0])
	assert.Equal(t, "Joy", rows[1][3])
	assert.Equal(t, types.Unknown, rows[2][3])

	total, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	dominant, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Joy", dominant)
}
