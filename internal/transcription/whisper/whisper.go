// Package whisper backs the transcription engine with whisper.cpp.
package whisper

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"mood-insights-go/internal/transcription"
)

const blankMarker = "[BLANK_AUDIO]"

// Model is a loaded ggml model shared by all recognizers.
type Model struct {
	model    whispercpp.Model
	language string

	// whisper contexts created from one model are not safe to run in
	// parallel, so decoding is serialized.
	mu sync.Mutex
}

// Loader returns a transcription.ModelLoader that opens file inside the
// provisioned model directory.
func Loader(file, language string) transcription.ModelLoader {
	return func(dir string) (transcription.Model, error) {
		path := filepath.Join(dir, file)
		m, err := whispercpp.New(path)
		if err != nil {
			return nil, fmt.Errorf("whisper: load model %q: %w", path, err)
		}
		return &Model{model: m, language: language}, nil
	}
}

func (m *Model) NewRecognizer(sampleRate int) (transcription.Recognizer, error) {
	if sampleRate != transcription.SampleRate {
		return nil, fmt.Errorf("whisper: unsupported sample rate %d", sampleRate)
	}
	return &recognizer{model: m}, nil
}

func (m *Model) Close() error {
	return m.model.Close()
}

// recognizer accumulates the stream and decodes it in one pass on
// FinalResult, since whisper works on whole utterances.
type recognizer struct {
	model   *Model
	samples []float32
}

func (r *recognizer) AcceptWaveform(samples []float32) error {
	r.samples = append(r.samples, samples...)
	return nil
}

func (r *recognizer) FinalResult() (string, error) {
	if len(r.samples) == 0 {
		return "", nil
	}

	r.model.mu.Lock()
	defer r.model.mu.Unlock()

	ctx, err := r.model.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if r.model.language != "" {
		if err := ctx.SetLanguage(r.model.language); err != nil {
			return "", fmt.Errorf("whisper: set language %q: %w", r.model.language, err)
		}
	}
	if err := ctx.Process(r.samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %w", err)
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: next segment: %w", err)
		}
		if text := strings.TrimSpace(strings.ReplaceAll(seg.Text, blankMarker, "")); text != "" {
			segments = append(segments, text)
		}
	}
	return strings.Join(segments, " "), nil
}

func (r *recognizer) Close() {
	r.samples = nil
}
