package transcription

// SampleRate is the only PCM rate accepted by the engine.
const SampleRate = 16000

// Model is the expensive, process-wide recognizer resource. Implementations
// must allow NewRecognizer to be called from many goroutines at once.
type Model interface {
	NewRecognizer(sampleRate int) (Recognizer, error)
}

// Recognizer is a per-transcription streaming session over a shared Model.
type Recognizer interface {
	// AcceptWaveform consumes one chunk of mono samples in [-1, 1]. The slice
	// is reused by the caller once the call returns.
	AcceptWaveform(samples []float32) error
	// FinalResult flushes the stream and returns the recognized text.
	FinalResult() (string, error)
	Close()
}

// ModelLoader opens a Model from a provisioned model directory.
type ModelLoader func(dir string) (Model, error)
