// Package pipeline runs one audio or text sample through the emotion stages
// and reduces every stage fault to the Unknown label.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"mood-insights-go/internal/classifier"
	"mood-insights-go/internal/ingress"
	"mood-insights-go/internal/lifecycle"
	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/metrics"
	"mood-insights-go/internal/transcode"
	"mood-insights-go/internal/types"
)

type Stage string

const (
	StageIngress        Stage = "ingress"
	StageTranscode      Stage = "transcode"
	StageTranscription  Stage = "transcription"
	StageClassification Stage = "classification"
)

// Transcriber turns a transcoded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, in types.TranscodedAudio) (string, error)
}

// Result is what one invocation produced. FailedStage is set when Emotion
// was reduced to Unknown because a stage faulted.
type Result struct {
	Emotion     string `json:"emotion"`
	Transcript  string `json:"transcript,omitempty"`
	FailedStage Stage  `json:"failed_stage,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// outcome tags a stage failure with where it happened.
type outcome struct {
	Stage Stage
	Kind  types.ErrorKind
	Err   error
}

func failed(stage Stage, err error) *outcome {
	kind := types.KindOf(err)
	if kind == "" {
		switch stage {
		case StageIngress:
			kind = types.KindStorage
		case StageTranscode:
			kind = types.KindTranscode
		case StageTranscription:
			kind = types.KindTranscription
		case StageClassification:
			kind = types.KindClassification
		}
	}
	return &outcome{Stage: stage, Kind: kind, Err: err}
}

type Pipeline struct {
	store       *ingress.Store
	transcoder  transcode.Transcoder
	transcriber Transcriber
	classifier  classifier.Classifier
	timeout     time.Duration
}

// New wires the audio stages. timeout bounds a whole invocation; zero means
// only the caller's context applies.
func New(store *ingress.Store, tc transcode.Transcoder, tr Transcriber, cls classifier.Classifier, timeout time.Duration) *Pipeline {
	return &Pipeline{store: store, transcoder: tc, transcriber: tr, classifier: cls, timeout: timeout}
}

// ProcessAudio stores, transcodes, transcribes and classifies one upload.
// The only error returned is InvalidInput; any other failure yields
// Emotion Unknown. Every temporary file is gone when it returns.
func (p *Pipeline) ProcessAudio(ctx context.Context, data []byte, filename string) (Result, error) {
	start := time.Now()
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	log := logger.New().WithField("component", "pipeline").WithField("entry", "audio")
	scope := lifecycle.NewScope(logger.FromEntry(log))
	defer scope.Release()

	var res Result
	out := p.runAudio(ctx, scope, logger.FromEntry(log), data, filename, &res)
	if out != nil && out.Kind == types.KindInvalidInput {
		metrics.RecordRequest("audio", "invalid")
		return Result{}, out.Err
	}

	res.Emotion = reduce(log, out, res.Emotion)
	if out != nil {
		res.FailedStage = out.Stage
	}
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.RecordRequest("audio", result(out))
	metrics.RecordDuration("total", time.Since(start).Seconds())
	log.WithFields(logrus.Fields{
		"emotion":     res.Emotion,
		"duration_ms": res.DurationMs,
	}).Info("audio processed")
	return res, nil
}

func (p *Pipeline) runAudio(ctx context.Context, scope *lifecycle.Scope, log *logger.Logger, data []byte, filename string, res *Result) (out *outcome) {
	stage := StageIngress
	defer func() {
		if r := recover(); r != nil {
			out = recovered(log.Entry, stage, r)
		}
	}()

	clip, err := p.store.Save(data, filename)
	if err != nil {
		return failed(StageIngress, err)
	}
	scope.Track(clip.Path)
	log = logger.FromEntry(log.WithField("clip", clip.Name))

	// tracked before ffmpeg starts so partial output is removed too
	derived := transcode.DerivedPath(clip)
	scope.Track(derived)

	stage = StageTranscode
	stageStart := time.Now()
	wav, err := p.transcoder.Transcode(ctx, clip)
	metrics.RecordDuration(string(StageTranscode), time.Since(stageStart).Seconds())
	if err != nil {
		return failed(StageTranscode, err)
	}
	if wav.Path != derived {
		scope.Track(wav.Path)
	}

	stage = StageTranscription
	stageStart = time.Now()
	text, err := p.transcriber.Transcribe(ctx, wav)
	metrics.RecordDuration(string(StageTranscription), time.Since(stageStart).Seconds())
	scope.Drop(wav.Path)
	if err != nil {
		return failed(StageTranscription, err)
	}
	res.Transcript = text
	if text == "" {
		log.Info("empty transcript, skipping classification")
		res.Emotion = types.Unknown
		return nil
	}

	stage = StageClassification
	label, out := p.classify(ctx, p.classifier, text)
	res.Emotion = label
	return out
}

// ProcessText classifies text directly with cls. Empty text is InvalidInput;
// classifier faults yield Unknown.
func (p *Pipeline) ProcessText(ctx context.Context, cls classifier.Classifier, text string) (Result, error) {
	start := time.Now()
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	entry := cls.Name()
	log := logger.New().WithField("component", "pipeline").WithField("entry", entry)

	label, out := p.classify(ctx, cls, text)
	if out != nil && out.Kind == types.KindInvalidInput {
		metrics.RecordRequest(entry, "invalid")
		return Result{}, out.Err
	}

	res := Result{Emotion: reduce(log, out, label), DurationMs: time.Since(start).Milliseconds()}
	if out != nil {
		res.FailedStage = out.Stage
	}
	metrics.RecordRequest(entry, result(out))
	return res, nil
}

func (p *Pipeline) classify(ctx context.Context, cls classifier.Classifier, text string) (label string, out *outcome) {
	defer func() {
		if r := recover(); r != nil {
			label, out = "", recovered(logger.New().WithField("component", "pipeline"), StageClassification, r)
		}
	}()

	start := time.Now()
	label, err := cls.Classify(ctx, text)
	metrics.RecordDuration(string(StageClassification), time.Since(start).Seconds())
	if err != nil {
		return "", failed(StageClassification, err)
	}
	return label, nil
}

// recovered turns a stage panic into an ordinary stage failure.
func recovered(log *logrus.Entry, stage Stage, r any) *outcome {
	log.WithField("stage", stage).WithField("stack", string(debug.Stack())).Error("stage panicked")
	return failed(stage, fmt.Errorf("panic: %v", r))
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

// reduce is the single place a stage fault becomes the Unknown label.
func reduce(log *logrus.Entry, out *outcome, label string) string {
	if out == nil {
		if label == "" {
			return types.Unknown
		}
		return label
	}

	metrics.RecordStageFailure(string(out.Stage), string(out.Kind))
	entry := log.WithFields(logrus.Fields{
		"stage": out.Stage,
		"kind":  out.Kind,
	}).WithField("error", out.Err.Error())
	if errors.Is(out.Err, context.DeadlineExceeded) {
		entry.Warn("pipeline deadline exceeded, returning Unknown")
	} else {
		entry.Warn("stage failed, returning Unknown")
	}
	return types.Unknown
}

func result(out *outcome) string {
	if out == nil {
		return "ok"
	}
	return "unknown"
}
