// Package api exposes the emotion pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mood-insights-go/internal/classifier"
	"mood-insights-go/internal/pipeline"
)

// Processor is the pipeline surface the handlers need.
type Processor interface {
	ProcessAudio(ctx context.Context, data []byte, filename string) (pipeline.Result, error)
	ProcessText(ctx context.Context, cls classifier.Classifier, text string) (pipeline.Result, error)
}

type Options struct {
	// TextClassifier serves /process_text; defaults to the keyword classifier.
	TextClassifier classifier.Classifier
	MaxUploadBytes int64
	StaticDir      string
}

type Server struct {
	proc      Processor
	text      classifier.Classifier
	quick     classifier.Classifier
	maxUpload int64
	staticDir string
}

func NewServer(proc Processor, opts Options) *Server {
	text := opts.TextClassifier
	if text == nil {
		text = classifier.NewKeyword(nil, nil)
	}
	limit := opts.MaxUploadBytes
	if limit <= 0 {
		limit = 25 << 20
	}
	return &Server{
		proc:      proc,
		text:      text,
		quick:     classifier.QuickMood{},
		maxUpload: limit,
		staticDir: opts.StaticDir,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	r.MaxMultipartMemory = s.maxUpload

	r.GET("/", s.index)
	if s.staticDir != "" {
		if fi, err := os.Stat(s.staticDir); err == nil && fi.IsDir() {
			r.Static("/static", s.staticDir)
		}
	}
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/upload_audio", s.uploadAudio)
	r.POST("/process_text", s.processText)
	r.POST("/quick_mood", s.quickMood)
	return r
}

func (s *Server) index(c *gin.Context) {
	page := filepath.Join(s.staticDir, "index.html")
	if s.staticDir == "" {
		c.String(http.StatusNotFound, "no static page configured")
		return
	}
	if _, err := os.Stat(page); err != nil {
		c.String(http.StatusNotFound, "index.html not found")
		return
	}
	c.File(page)
}
