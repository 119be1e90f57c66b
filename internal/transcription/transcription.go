package transcription

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/metrics"
	"mood-insights-go/internal/types"
)

const (
	defaultChunkFrames      = 4000
	defaultProvisionTimeout = 10 * time.Minute
)

// Engine turns 16kHz mono PCM WAV files into text using one shared Model.
type Engine struct {
	store       *ModelStore
	load        ModelLoader
	chunkFrames int

	// ProvisionTimeout bounds one download-and-load attempt. The attempt
	// outlives the request that started it.
	ProvisionTimeout time.Duration

	mu      sync.Mutex
	model   Model
	pending *provisioning
}

// provisioning is one in-flight download-and-load attempt. model and err are
// written before done is closed.
type provisioning struct {
	done  chan struct{}
	model Model
	err   error
}

func NewEngine(store *ModelStore, load ModelLoader, chunkFrames int) *Engine {
	if chunkFrames <= 0 {
		chunkFrames = defaultChunkFrames
	}
	return &Engine{store: store, load: load, chunkFrames: chunkFrames, ProvisionTimeout: defaultProvisionTimeout}
}

// NewEngineWithModel wraps an already loaded model.
func NewEngineWithModel(m Model, chunkFrames int) *Engine {
	e := NewEngine(nil, nil, chunkFrames)
	e.model = m
	return e
}

// Model returns the shared model, provisioning and loading it on first use.
// Concurrent callers share one attempt, which keeps running when a caller's
// ctx ends so a slow download is not restarted per request. A failed attempt
// is not remembered; the next call tries again.
func (e *Engine) Model(ctx context.Context) (Model, error) {
	e.mu.Lock()
	if e.model != nil {
		m := e.model
		e.mu.Unlock()
		return m, nil
	}
	if e.store == nil || e.load == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("no model source configured")
	}
	p := e.pending
	if p == nil {
		p = &provisioning{done: make(chan struct{})}
		e.pending = p
		go e.provision(context.WithoutCancel(ctx), p)
	}
	e.mu.Unlock()

	select {
	case <-p.done:
		return p.model, p.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for recognizer model: %w", ctx.Err())
	}
}

func (e *Engine) provision(ctx context.Context, p *provisioning) {
	if e.ProvisionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ProvisionTimeout)
		defer cancel()
	}
	log := logger.New().WithField("component", "transcription")

	p.model, p.err = e.provisionModel(ctx)

	e.mu.Lock()
	if p.err == nil {
		e.model = p.model
		metrics.SetModelLoaded(true)
	} else {
		log.WithError(p.err).Warn("recognizer model unavailable")
	}
	e.pending = nil
	e.mu.Unlock()
	close(p.done)
}

func (e *Engine) provisionModel(ctx context.Context) (m Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("model loader panicked: %v", r)
		}
	}()

	dir, err := e.store.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err = e.load(dir)
	if err != nil {
		return nil, fmt.Errorf("load model from %s: %w", dir, err)
	}
	logger.New().WithField("component", "transcription").
		WithField("model_dir", dir).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("recognizer model loaded")
	return m, nil
}

// Transcribe streams the WAV at in.Path through a fresh recognizer in
// fixed-size chunks and returns the final text. An empty string is a valid
// result.
func (e *Engine) Transcribe(ctx context.Context, in types.TranscodedAudio) (string, error) {
	const op = "transcription.transcribe"

	m, err := e.Model(ctx)
	if err != nil {
		return "", types.TranscriptionError(op, err)
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return "", types.TranscriptionError(op, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return "", types.TranscriptionError(op, fmt.Errorf("%s is not a valid WAV file", in.Path))
	}
	format := dec.Format()
	if dec.WavAudioFormat != 1 || dec.BitDepth != 16 || format.NumChannels != 1 || format.SampleRate != SampleRate {
		return "", types.TranscriptionError(op, fmt.Errorf(
			"unsupported audio: format=%d bits=%d channels=%d rate=%d (want PCM 16-bit mono %d Hz)",
			dec.WavAudioFormat, dec.BitDepth, format.NumChannels, format.SampleRate, SampleRate))
	}

	rec, err := m.NewRecognizer(format.SampleRate)
	if err != nil {
		return "", types.TranscriptionError(op, fmt.Errorf("new recognizer: %w", err))
	}
	defer rec.Close()

	buf := &audio.IntBuffer{Format: format, Data: make([]int, e.chunkFrames), SourceBitDepth: 16}
	samples := make([]float32, e.chunkFrames)
	for {
		if err := ctx.Err(); err != nil {
			return "", types.TranscriptionError(op, err)
		}
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return "", types.TranscriptionError(op, fmt.Errorf("read pcm: %w", err))
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples[i] = float32(buf.Data[i]) / 32768
		}
		if err := rec.AcceptWaveform(samples[:n]); err != nil {
			return "", types.TranscriptionError(op, fmt.Errorf("accept waveform: %w", err))
		}
	}

	text, err := rec.FinalResult()
	if err != nil {
		return "", types.TranscriptionError(op, fmt.Errorf("final result: %w", err))
	}
	return strings.TrimSpace(text), nil
}
