package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mood-insights-go/internal/api"
	"mood-insights-go/internal/classifier"
	"mood-insights-go/internal/config"
	"mood-insights-go/internal/ingress"
	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/pipeline"
	"mood-insights-go/internal/transcode"
	"mood-insights-go/internal/transcription"
	"mood-insights-go/internal/transcription/whisper"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "mood-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	remote, err := classifier.New(cfg.Classifier)
	if err != nil {
		log.WithError(err).Fatal("failed to build classifier")
	}
	lex, err := classifier.LoadLexicon(cfg.Classifier.LexiconPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load lexicon")
	}
	log.WithField("classifier", remote.Name()).
		WithField("max_retries", cfg.Classifier.MaxRetries).
		Info("classifier ready")

	store := transcription.NewModelStore(cfg.Model.Dir, cfg.Model.URL, cfg.Model.File)
	engine := transcription.NewEngine(store, whisper.Loader(cfg.Model.File, cfg.Model.Language), cfg.Model.ChunkFrames)

	p := pipeline.New(
		ingress.NewStore(cfg.Storage.UploadDir),
		transcode.NewFFmpeg(cfg.Transcode.FFmpegPath),
		engine,
		remote,
		cfg.Pipeline.Timeout,
	)

	if cfg.Server.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	srvAPI := api.NewServer(p, api.Options{
		TextClassifier: classifier.NewKeyword(lex, nil),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		StaticDir:      cfg.Server.StaticDir,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Pipeline.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
