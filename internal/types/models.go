package types

// Unknown is the label returned whenever a stage fails or yields no usable signal.
const Unknown = "Unknown"

// AudioClip is an uploaded recording persisted in temporary storage.
type AudioClip struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// TranscodedAudio is the PCM WAV derived from exactly one AudioClip.
type TranscodedAudio struct {
	Path       string `json:"path"`
	SampleRate int    `json:"sample_rate"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Emotion string `json:"emotion,omitempty"`
	Message string `json:"message,omitempty"`
}

type TextRequest struct {
	TextInput string `json:"text_input"`
}

type QuickMoodRequest struct {
	Mood string `json:"mood"`
}

// Sample is one row of a batch labelling sheet.
type Sample struct {
	Row       int    `json:"row"`
	Text      string `json:"text,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
}
