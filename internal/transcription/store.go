package transcription

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mood-insights-go/internal/logger"
)

// ModelStore provisions the recognizer model into a fixed local directory,
// downloading and unpacking it on first use.
type ModelStore struct {
	Dir  string
	URL  string
	File string // name for single-file (non-archive) downloads

	HTTPClient *http.Client
	RetryFor   time.Duration

	mu sync.Mutex
}

func NewModelStore(dir, url, file string) *ModelStore {
	return &ModelStore{Dir: dir, URL: url, File: file, RetryFor: 2 * time.Minute}
}

// Ensure returns the model directory, provisioning it if absent. Concurrent
// callers block until the single download finishes.
func (s *ModelStore) Ensure(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.New().WithField("component", "model-store").WithField("model_dir", s.Dir)

	ok, err := s.provisioned()
	if err != nil {
		return "", err
	}
	if ok {
		return s.Dir, nil
	}
	if s.URL == "" {
		return "", fmt.Errorf("model not found at %s and no download url configured", s.Dir)
	}
	if _, err := os.Stat(s.Dir); err == nil {
		log.Warn("model dir is incomplete, downloading again")
		if err := os.RemoveAll(s.Dir); err != nil {
			return "", fmt.Errorf("remove incomplete model dir: %w", err)
		}
	}

	log.WithField("url", s.URL).Info("provisioning recognizer model")
	start := time.Now()

	parent := filepath.Dir(s.Dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create model parent dir: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".model-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	name := archiveName(s.URL)
	archive := filepath.Join(staging, name)
	if err := fetch(ctx, s.HTTPClient, s.URL, archive, s.RetryFor); err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}

	content := filepath.Join(staging, "content")
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		if err := extractZip(archive, content); err != nil {
			return "", fmt.Errorf("extract model: %w", err)
		}
		content = singleRoot(content)
		if s.File != "" {
			if _, err := os.Stat(filepath.Join(content, s.File)); err != nil {
				return "", fmt.Errorf("archive does not contain %s", s.File)
			}
		}
	} else {
		if err := os.MkdirAll(content, 0o755); err != nil {
			return "", err
		}
		file := s.File
		if file == "" {
			file = name
		}
		if err := os.Rename(archive, filepath.Join(content, file)); err != nil {
			return "", fmt.Errorf("place model file: %w", err)
		}
	}

	if err := os.Rename(content, s.Dir); err != nil {
		return "", fmt.Errorf("install model: %w", err)
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("recognizer model ready")
	return s.Dir, nil
}

// provisioned reports whether Dir holds a usable model: File when one is
// named, otherwise any content at all.
func (s *ModelStore) provisioned() (bool, error) {
	fi, err := os.Stat(s.Dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat model dir: %w", err)
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("model path %s is not a directory", s.Dir)
	}
	if s.File != "" {
		fi, err := os.Stat(filepath.Join(s.Dir, s.File))
		return err == nil && fi.Mode().IsRegular() && fi.Size() > 0, nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return false, fmt.Errorf("read model dir: %w", err)
	}
	return len(entries) > 0, nil
}

func archiveName(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		if b := path.Base(u.Path); b != "" && b != "/" && b != "." {
			return b
		}
	}
	return "model.bin"
}

// singleRoot descends into the lone top-level directory most model archives
// wrap their files in.
func singleRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}

func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
