package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

// SampleRate is the PCM rate the recognizer expects.
const SampleRate = 16000

// Transcoder turns an uploaded clip into 16kHz mono PCM WAV.
type Transcoder interface {
	Transcode(ctx context.Context, clip types.AudioClip) (types.TranscodedAudio, error)
}

// FFmpeg runs the ffmpeg binary as a child process, so a codec crash only
// fails the one invocation.
type FFmpeg struct {
	Bin string
}

func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{Bin: bin}
}

// DerivedPath is where the WAV for clip is written. Callers track it for
// cleanup before Transcode runs, since ffmpeg may leave partial output.
func DerivedPath(clip types.AudioClip) string {
	base := strings.TrimSuffix(clip.Path, filepath.Ext(clip.Path))
	return base + "_16k.wav"
}

func (f *FFmpeg) Transcode(ctx context.Context, clip types.AudioClip) (types.TranscodedAudio, error) {
	log := logger.New().WithField("component", "transcode").WithField("clip", clip.Name)
	out := DerivedPath(clip)

	// ffmpeg -y -i input -ar 16000 -ac 1 -c:a pcm_s16le -f wav output
	cmd := exec.CommandContext(ctx, f.Bin,
		"-y", "-i", clip.Path,
		"-ar", fmt.Sprint(SampleRate), "-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// grandchildren holding stderr open must not outlive a cancelled context
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	log = log.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound):
			err = fmt.Errorf("%s not available: %w", f.Bin, err)
		case errors.As(err, &exitErr):
			err = fmt.Errorf("%s exited with status %d: %s", f.Bin, exitErr.ExitCode(), tail(stderr.String(), 400))
		default:
			err = fmt.Errorf("run %s: %w", f.Bin, err)
		}
		log.WithError(err).Warn("transcode failed")
		return types.TranscodedAudio{}, types.TranscodeError("transcode.ffmpeg", err)
	}

	fi, err := os.Stat(out)
	if err != nil || fi.Size() == 0 {
		err = fmt.Errorf("%s produced no output at %s", f.Bin, out)
		log.WithError(err).Warn("transcode failed")
		return types.TranscodedAudio{}, types.TranscodeError("transcode.ffmpeg", err)
	}

	log.Debug("transcode finished")
	return types.TranscodedAudio{Path: out, SampleRate: SampleRate}, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
