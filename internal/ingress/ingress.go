package ingress

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"lukechampine.com/blake3"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

const defaultFormat = "webm"

// Store persists uploaded clips under unique names in one directory.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes data to a fresh file and returns its handle. The name combines a
// nanosecond timestamp with a random uuid fragment so identical uploads in the
// same instant never collide.
func (s *Store) Save(data []byte, filename string) (types.AudioClip, error) {
	if strings.TrimSpace(filename) == "" {
		return types.AudioClip{}, types.InvalidInput("ingress.save", "No file selected.")
	}
	if len(data) == 0 {
		return types.AudioClip{}, types.InvalidInput("ingress.save", "No file selected.")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return types.AudioClip{}, fmt.Errorf("create upload dir: %w", err)
	}

	format := Format(filename)
	name := fmt.Sprintf("recording_%d_%s.%s", s.now().UnixNano(), strings.Split(uuid.NewString(), "-")[0], format)
	path := filepath.Join(s.dir, name)

	// O_EXCL: never overwrite another invocation's clip
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return types.AudioClip{}, fmt.Errorf("create clip: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return types.AudioClip{}, fmt.Errorf("write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return types.AudioClip{}, fmt.Errorf("close clip: %w", err)
	}

	clip := types.AudioClip{
		Path:        path,
		Name:        name,
		Format:      format,
		Size:        int64(len(data)),
		Fingerprint: Fingerprint(data),
	}
	logger.New().WithField("component", "ingress").WithFields(logrus.Fields{
		"clip":        clip.Name,
		"size":        clip.Size,
		"fingerprint": clip.Fingerprint,
	}).Debug("clip stored")
	return clip, nil
}

// Format returns the lower-cased extension of filename, or webm.
func Format(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return defaultFormat
	}
	return ext
}

// Fingerprint is a short blake3 digest used to correlate repeated uploads in logs.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
