package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Retry controls remote attempts. The zero value makes exactly one attempt
// with no per-attempt timeout beyond the caller's context.
type Retry struct {
	MaxRetries int
	Timeout    time.Duration
}

// do runs op until it succeeds, returns a permanent error, or the retry
// budget is spent. Only errors op leaves unwrapped are retried.
func (r Retry) do(ctx context.Context, log *logrus.Entry, op func(ctx context.Context) error) error {
	retries := r.MaxRetries
	if retries < 0 {
		retries = 0
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		actx, cancel := ctx, context.CancelFunc(func() {})
		if r.Timeout > 0 {
			actx, cancel = context.WithTimeout(ctx, r.Timeout)
		}
		defer cancel()

		err := op(actx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.WithField("attempt", attempt).WithError(err).Warn("classifier attempt failed")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx))
}

// statusError is a non-2xx reply from a remote model.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.code, e.body)
}

// checkStatus turns a non-2xx status into an error, permanent unless 5xx.
func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	b := string(body)
	if len(b) > 256 {
		b = b[:256]
	}
	err := &statusError{code: code, body: strings.TrimSpace(b)}
	if code >= 500 {
		return err
	}
	return backoff.Permanent(err)
}

// cleanLabel keeps the first line of a model reply and strips surrounding
// whitespace, quotes and punctuation.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
}
