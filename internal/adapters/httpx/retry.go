// Package httpx holds the outbound request loop shared by the remote API
// clients: client-side rate limiting, retries with jittered backoff and
// Retry-After, and external request metrics.
package httpx

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"spot_explorer/internal/adapters/observability"
)

// StatusError is a non-200 response that was not retried, or the last
// transient one once retries ran out.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote %d", e.Code)
	}
	return fmt.Sprintf("bad status %d: %s", e.Code, e.Body)
}

// Retrier is safe for concurrent use.
type Retrier struct {
	hc         *http.Client
	rl         *rate.Limiter
	maxRetries int
}

func NewRetrier(timeout time.Duration, rps, maxRetries int) *Retrier {
	if rps <= 0 {
		rps = 1
	}
	return &Retrier{
		hc:         &http.Client{Timeout: timeout},
		rl:         rate.NewLimiter(rate.Limit(rps), rps),
		maxRetries: max(maxRetries, 0),
	}
}

// Do sends the request built by newReq and hands a 200 body to onOK. It
// retries network errors, 429 and transient 5xx, honoring Retry-After.
// service and endpoint only label metrics.
func (r *Retrier) Do(ctx context.Context, service, endpoint string, newReq func(context.Context) (*http.Request, error), onOK func(io.Reader) error) error {
	if err := r.rl.Wait(ctx); err != nil {
		return err
	}

	attempts := r.maxRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		last := i == attempts-1

		req, err := newReq(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := r.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if !last && SleepCtx(ctx, Backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := onOK(resp.Body)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := RetryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = Backoff(i)
			}
			lastErr = &StatusError{Code: resp.StatusCode}
			if !last && SleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
	}
	return lastErr
}

// SleepCtx waits for d or returns false early if ctx is done.
func SleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func RetryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func Backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
