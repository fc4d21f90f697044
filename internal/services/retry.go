package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

const (
	defaultMaxRetries  = 6
	defaultBackoffBase = time.Second
	maxBackoff         = 30 * time.Second
	// the pacer never slows below one request per this interval
	slowestInterval = 10 * time.Second
)

// IsRetryable reports whether a failed API call is worth retrying: rate limiting, upstream 5xx
// and transport failures. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if status, ok := statusOf(err); ok {
		return status == http.StatusTooManyRequests || status >= 500
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var ue *url.Error
	return errors.As(err, &ue)
}

// statusOf extracts the HTTP status from a Spotify API error.
func statusOf(err error) (int, bool) {
	var se spotify.Error
	if errors.As(err, &se) {
		return se.Status, true
	}
	var sp *spotify.Error
	if errors.As(err, &sp) && sp != nil {
		return sp.Status, true
	}
	return 0, false
}

// backoff returns base × 2^attempt plus up to one base of jitter, capped at [maxBackoff].
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << attempt
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	if base > 0 {
		d += rand.N(base)
	}
	return d
}

// pacer spaces out API calls. The limit drops by half on pressure and recovers 10% per success,
// never exceeding the configured base rate. A zero delay disables pacing entirely.
type pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	base    rate.Limit
	floor   rate.Limit
}

func newPacer(delay time.Duration) *pacer {
	base := rate.Inf
	if delay > 0 {
		base = rate.Every(delay)
	}
	return &pacer{
		limiter: rate.NewLimiter(base, 1),
		base:    base,
		floor:   rate.Every(slowestInterval),
	}
}

func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// slowDown halves the current rate.
func (p *pacer) slowDown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.limiter.Limit()
	if cur == rate.Inf {
		return
	}
	next := max(cur/2, p.floor)
	p.limiter.SetLimit(next)
}

// speedUp raises the rate by 10% toward the base.
func (p *pacer) speedUp() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.limiter.Limit()
	if cur == p.base {
		return
	}
	p.limiter.SetLimit(min(cur*1.1, p.base))
}

// Limit returns the current request rate.
func (p *pacer) Limit() rate.Limit {
	return p.limiter.Limit()
}

// retrier runs API calls through the pacer and retries transient failures.
type retrier struct {
	pacer      *pacer
	maxRetries int
	base       time.Duration
	logger     *log.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// do calls fn until it succeeds, fails with a non-retryable error, or runs out of attempts.
func (r *retrier) do(ctx context.Context, op string, fn func() error) error {
	attempts := max(r.maxRetries, 1)
	var lastErr error
	for attempt := range attempts {
		if err := r.pacer.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			r.pacer.speedUp()
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
		}

		r.pacer.slowDown()
		if attempt == attempts-1 {
			break
		}

		wait := backoff(r.base, attempt)
		r.logger.Warn("retrying request", "op", op, "attempt", attempt+1, "wait", wait, "err", err)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", shared.ErrRetriesExhausted, op, attempts, lastErr)
}
