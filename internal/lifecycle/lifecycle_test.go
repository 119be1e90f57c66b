package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func TestReleaseRemovesTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.webm")
	b := touch(t, dir, "a.wav")

	s := NewScope(nil)
	s.Track(a)
	s.Track(b)
	s.Track(a)
	assert.Len(t, s.Pending(), 2)

	s.Release()

	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.Empty(t, s.Pending())
}

func TestReleaseIgnoresMissingFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewScope(nil)
	s.Track(filepath.Join(dir, "never-created.wav"))
	s.Track("")

	assert.NotPanics(t, s.Release)
}

func TestReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.webm")

	s := NewScope(nil)
	s.Track(a)
	s.Release()

	// a new file with the same name must not be touched by a second release
	touch(t, dir, "a.webm")
	s.Release()
	assert.FileExists(t, a)
}

func TestTrackAfterReleaseRemovesImmediately(t *testing.T) {
	dir := t.TempDir()
	s := NewScope(nil)
	s.Release()

	late := touch(t, dir, "late.wav")
	s.Track(late)
	assert.NoFileExists(t, late)
}

func TestReleaseRunsOnPanic(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.webm")

	func() {
		defer func() { _ = recover() }()
		s := NewScope(nil)
		defer s.Release()
		s.Track(a)
		panic("stage blew up")
	}()

	assert.NoFileExists(t, a)
}

func TestReleaseLogsUndeletable(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	touch(t, sub, "keep")

	s := NewScope(nil)
	// a non-empty directory cannot be removed with os.Remove
	s.Track(sub)
	assert.NotPanics(t, s.Release)
	assert.DirExists(t, sub)
}

func TestDropRemovesEarly(t *testing.T) {
	dir := t.TempDir()
	clip := touch(t, dir, "clip.webm")
	wav := touch(t, dir, "clip_16k.wav")

	s := NewScope(nil)
	s.Track(clip)
	s.Track(wav)
	s.Drop(wav)

	assert.NoFileExists(t, wav)
	assert.FileExists(t, clip)
	assert.Equal(t, []string{clip}, s.Pending())

	s.Release()
	assert.NoFileExists(t, clip)
}
