package transcription

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, body []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// cachedModel lays out a model dir holding file, as a previous run would.
func cachedModel(t *testing.T, file string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte("ggml"), 0o644))
	return dir
}

func TestEnsureUsesCachedDir(t *testing.T) {
	dir := cachedModel(t, "model.bin")

	var hits atomic.Int32
	srv := serve(t, []byte("unused"), &hits)

	got, err := NewModelStore(dir, srv.URL+"/m.bin", "model.bin").Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.Zero(t, hits.Load())
}

func TestEnsureReplacesIncompleteDir(t *testing.T) {
	cases := []struct {
		name  string
		setup func(dir string)
	}{
		{name: "empty dir", setup: func(string) {}},
		{name: "model file missing", setup: func(dir string) {
			_ = os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644)
		}},
		{name: "model file truncated", setup: func(dir string) {
			_ = os.WriteFile(filepath.Join(dir, "model.bin"), nil, 0o644)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "model")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			tc.setup(dir)

			var hits atomic.Int32
			srv := serve(t, []byte("ggml"), &hits)

			s := NewModelStore(dir, srv.URL+"/ggml-base.en.bin", "model.bin")
			_, err := s.Ensure(context.Background())
			require.NoError(t, err)
			b, err := os.ReadFile(filepath.Join(dir, "model.bin"))
			require.NoError(t, err)
			assert.Equal(t, "ggml", string(b))
			assert.NoFileExists(t, filepath.Join(dir, "README"))

			_, err = s.Ensure(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestEnsureIncompleteDirWithoutURL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	_, err := NewModelStore(dir, "", "model.bin").Ensure(context.Background())
	require.Error(t, err)
	assert.DirExists(t, dir)
}

func TestEnsureRejectsArchiveWithoutModelFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	var hits atomic.Int32
	srv := serve(t, zipBytes(t, map[string]string{"v1/other.bin": "x"}), &hits)

	_, err := NewModelStore(dir, srv.URL+"/m.zip", "model.bin").Ensure(context.Background())
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestEnsureExtractsZipOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models", "base-en")
	var hits atomic.Int32
	srv := serve(t, zipBytes(t, map[string]string{
		"base-en-v1/am/final.mdl": "acoustic",
		"base-en-v1/conf/model.conf": "conf",
	}), &hits)

	s := NewModelStore(dir, srv.URL+"/base-en-v1.zip", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Ensure(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	b, err := os.ReadFile(filepath.Join(dir, "am", "final.mdl"))
	require.NoError(t, err)
	assert.Equal(t, "acoustic", string(b))

	// no staging leftovers next to the model dir
	entries, _ := os.ReadDir(filepath.Dir(dir))
	assert.Len(t, entries, 1)
}

func TestEnsureStoresSingleFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ggml-base.en")
	var hits atomic.Int32
	srv := serve(t, []byte("ggml"), &hits)

	_, err := NewModelStore(dir, srv.URL+"/resolve/main/ggml-base.en.bin", "model.bin").Ensure(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "model.bin"))
}

func TestEnsureRejectsZipSlip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	var hits atomic.Int32
	srv := serve(t, zipBytes(t, map[string]string{"../evil.txt": "x"}), &hits)

	_, err := NewModelStore(dir, srv.URL+"/m.zip", "").Ensure(context.Background())
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestEnsureClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewModelStore(filepath.Join(t.TempDir(), "model"), srv.URL+"/m.zip", "")
	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestEnsureRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ggml"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "model")
	s := NewModelStore(dir, srv.URL+"/ggml.bin", "")
	s.RetryFor = 10 * time.Second

	_, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	assert.FileExists(t, filepath.Join(dir, "ggml.bin"))
}

func TestEnsureWithoutURL(t *testing.T) {
	_, err := NewModelStore(filepath.Join(t.TempDir(), "absent"), "", "").Ensure(context.Background())
	assert.Error(t, err)
}
