package transcription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var httpClient = &http.Client{Timeout: 15 * time.Minute}

// fetch downloads url into dst, retrying network errors and 5xx with
// exponential backoff. 4xx responses are permanent.
func fetch(ctx context.Context, client *http.Client, url, dst string, maxElapsed time.Duration) error {
	if client == nil {
		client = httpClient
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(b))
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("download failed with status %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}

		f, err := os.Create(dst)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			lastErr = fmt.Errorf("download interrupted: %w", err)
			return lastErr
		}
		if err := f.Close(); err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}
