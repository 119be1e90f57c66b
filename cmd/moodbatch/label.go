package main

import (
	"github.com/spf13/cobra"

	"mood-insights-go/internal/batch"
	"mood-insights-go/internal/classifier"
	"mood-insights-go/internal/config"
	"mood-insights-go/internal/ingress"
	"mood-insights-go/internal/pipeline"
	"mood-insights-go/internal/transcode"
	"mood-insights-go/internal/transcription"
	"mood-insights-go/internal/transcription/whisper"
)

func newLabelCmd() *cobra.Command {
	opts := batch.Options{}
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label every row of an xlsx workbook and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadValid()
			if err != nil {
				return err
			}
			p, text, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			return batch.Run(cmd.Context(), opts, p, text, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.In, "in", "", "input workbook (.xlsx)")
	cmd.Flags().StringVar(&opts.Out, "out", "labeled.xlsx", "output workbook")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "samples processed in parallel")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, classifier.Classifier, error) {
	remote, err := classifier.New(cfg.Classifier)
	if err != nil {
		return nil, nil, err
	}
	lex, err := classifier.LoadLexicon(cfg.Classifier.LexiconPath)
	if err != nil {
		return nil, nil, err
	}
	store := transcription.NewModelStore(cfg.Model.Dir, cfg.Model.URL, cfg.Model.File)
	engine := transcription.NewEngine(store, whisper.Loader(cfg.Model.File, cfg.Model.Language), cfg.Model.ChunkFrames)
	p := pipeline.New(ingress.NewStore(cfg.Storage.UploadDir), transcode.NewFFmpeg(cfg.Transcode.FFmpegPath), engine, remote, cfg.Pipeline.Timeout)
	return p, classifier.NewKeyword(lex, nil), nil
}
