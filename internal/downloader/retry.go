package downloader

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/folio/folio/internal/catalog"
)

// DefaultRetries is the attempt count used when none is configured.
const DefaultRetries = 3

// Retry re-attempts a download on retryable fetch failures. Parse errors
// and client errors are returned after the first attempt.
type Retry struct {
	next     Downloader
	attempts int
	newBack  func() backoff.BackOff
}

// NewRetry wraps next with bounded retries. attempts counts the first try.
func NewRetry(next Downloader, attempts int) *Retry {
	if attempts <= 0 {
		attempts = DefaultRetries
	}
	return &Retry{
		next:     next,
		attempts: attempts,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// WithBackOff overrides the backoff policy.
func (r *Retry) WithBackOff(fn func() backoff.BackOff) *Retry {
	r.newBack = fn
	return r
}

// Download implements Downloader.
func (r *Retry) Download(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	op := func() error {
		var err error
		resp, err = r.next.Download(ctx, req)
		if err != nil && !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(r.newBack(), uint64(r.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		// Context expiry between attempts surfaces as a bare context error.
		if catalog.KindOf(err) == "" {
			return nil, catalog.NewFetchError("", req.URL, err)
		}
		return nil, err
	}
	return resp, nil
}

func shouldRetry(err error) bool {
	if !catalog.IsRetryable(err) || errors.Is(err, ErrBodyTooLarge) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}
