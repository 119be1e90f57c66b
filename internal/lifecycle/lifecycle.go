// Package lifecycle removes the temporary files of one pipeline invocation.
//
// A Scope is opened at the start of an invocation and released with defer, so
// every tracked file is deleted on success, on stage failure and on panic.
package lifecycle

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/metrics"
)

type Scope struct {
	mu       sync.Mutex
	paths    []string
	seen     map[string]struct{}
	released bool
	log      *logger.Logger
}

func NewScope(log *logger.Logger) *Scope {
	if log == nil {
		log = logger.New()
	}
	return &Scope{seen: map[string]struct{}{}, log: log}
}

// Track registers path for removal. Tracking the same path twice is a no-op.
// Paths tracked after Release are removed immediately.
func (s *Scope) Track(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		s.remove(path)
		return
	}
	if _, ok := s.seen[path]; !ok {
		s.seen[path] = struct{}{}
		s.paths = append(s.paths, path)
	}
	s.mu.Unlock()
}

// Release deletes every tracked path once, newest first. Failures are logged
// and counted but never returned.
func (s *Scope) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		s.remove(paths[i])
	}
}

// Drop removes path now and stops tracking it.
func (s *Scope) Drop(path string) {
	s.mu.Lock()
	if _, ok := s.seen[path]; ok {
		for i, p := range s.paths {
			if p == path {
				s.paths = append(s.paths[:i], s.paths[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	s.remove(path)
}

// Pending returns the paths not yet released.
func (s *Scope) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *Scope) remove(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		s.log.WithField("path", path).Debug("removed temporary file")
	case errors.Is(err, fs.ErrNotExist):
		// never created, e.g. the transcoder failed before writing output
	default:
		metrics.RecordCleanupFailure()
		s.log.WithError(err).WithField("path", path).Warn("failed to remove temporary file")
	}
}
