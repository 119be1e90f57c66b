package ingress

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood-insights-go/internal/types"
)

func TestSaveRejectsInvalidInput(t *testing.T) {
	s := NewStore(t.TempDir())

	_, err := s.Save(nil, "clip.webm")
	assert.True(t, types.IsInvalidInput(err))

	_, err = s.Save([]byte{}, "clip.webm")
	assert.True(t, types.IsInvalidInput(err))

	_, err = s.Save([]byte("abc"), "  ")
	assert.True(t, types.IsInvalidInput(err))

	entries, _ := os.ReadDir(s.Dir())
	assert.Empty(t, entries)
}

func TestSaveWritesOneFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewStore(dir)

	clip, err := s.Save([]byte("OggS-data"), "voice.OGG")
	require.NoError(t, err)

	assert.Equal(t, "ogg", clip.Format)
	assert.Equal(t, int64(9), clip.Size)
	assert.Regexp(t, `^recording_\d+_[0-9a-f]{8}\.ogg$`, clip.Name)
	assert.Equal(t, filepath.Join(dir, clip.Name), clip.Path)

	b, err := os.ReadFile(clip.Path)
	require.NoError(t, err)
	assert.Equal(t, "OggS-data", string(b))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1)
}

func TestSaveSameBytesConcurrently(t *testing.T) {
	s := NewStore(t.TempDir())
	// freeze the clock so only the random suffix separates names
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	const n = 16
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clip, err := s.Save([]byte("same-bytes"), "blob")
			paths[i], errs[i] = clip.Path, err
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[paths[i]], "duplicate path %s", paths[i])
		seen[paths[i]] = true
	}
	entries, _ := os.ReadDir(s.Dir())
	assert.Len(t, entries, n)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "webm", Format("blob"))
	assert.Equal(t, "wav", Format("a.WAV"))
	assert.Equal(t, "webm", Format("recording."))
}

func TestFingerprintStable(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("a")), Fingerprint([]byte("a")))
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
	assert.Len(t, Fingerprint([]byte("a")), 16)
}
