// Package batch labels spreadsheets of samples offline.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"mood-insights-go/internal/actionable"
	"mood-insights-go/internal/aggregator"
	"mood-insights-go/internal/classifier"
	"mood-insights-go/internal/dataset"
	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/pipeline"
	"mood-insights-go/internal/types"
)

type Options struct {
	In      string
	Out     string
	Workers int
}

// Report is what a run prints.
type Report struct {
	Summary aggregator.Summary    `json:"summary"`
	Card    actionable.ActionCard `json:"card"`
}

// Processor is the part of the pipeline a batch run drives.
type Processor interface {
	ProcessAudio(ctx context.Context, data []byte, filename string) (pipeline.Result, error)
	ProcessText(ctx context.Context, cls classifier.Classifier, text string) (pipeline.Result, error)
}

// Run labels every sample, writes the output workbook and prints a Report
// as JSON. A sample that cannot be processed is labelled Unknown.
func Run(ctx context.Context, opts Options, p Processor, text classifier.Classifier, stdout io.Writer) error {
	log := logger.New().WithField("component", "batch")
	start := time.Now()

	samples, err := dataset.Load(opts.In)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.In, err)
	}
	log.WithField("samples", len(samples)).WithField("workers", opts.Workers).Info("labelling samples")

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range samples {
		g.Go(func() error {
			samples[i].Emotion = labelOne(gctx, p, text, samples[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sum := aggregator.Aggregate(samples)
	if err := dataset.Write(opts.Out, samples, sum); err != nil {
		return err
	}
	log.WithField("out", opts.Out).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("batch complete")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Summary: sum, Card: actionable.Generate(sum)})
}

// labelOne prefers audio when a row has both.
func labelOne(ctx context.Context, p Processor, text classifier.Classifier, s types.Sample) string {
	log := logger.New().WithField("component", "batch").WithField("row", s.Row)

	if s.AudioPath != "" {
		data, err := os.ReadFile(s.AudioPath)
		if err != nil {
			log.WithError(err).Warn("cannot read audio sample")
			return types.Unknown
		}
		res, err := p.ProcessAudio(ctx, data, filepath.Base(s.AudioPath))
		if err != nil {
			log.WithError(err).Warn("audio sample rejected")
			return types.Unknown
		}
		return res.Emotion
	}

	res, err := p.ProcessText(ctx, text, s.Text)
	if err != nil {
		log.WithError(err).Warn("text sample rejected")
		return types.Unknown
	}
	return res.Emotion
}
