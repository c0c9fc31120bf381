// Package ratelimit implements the fixed-window limiter described in §4.2,
// converging the multiple shapes Open Question #3 calls out into one
// canonical Limiter with an optional additive byte cost used by Effis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/config"
)

// Limiter checks and records hits against named buckets in a shared cache.
type Limiter struct {
	cache cache.Cache
}

// New builds a Limiter backed by c.
func New(c cache.Cache) *Limiter {
	return &Limiter{cache: c}
}

// Result carries the header values emitted on both success and error
// responses (§4.2, §8 scenario 3).
type Result struct {
	Bucket       string
	Limit        int
	Remaining    int
	ResetAfter   time.Duration
	LastReset    time.Time
	RequestCount int
}

// Headers returns the X-RateLimit-* header set for r.
func (r Result) Headers() map[string]string {
	return map[string]string{
		"X-RateLimit-Reset":         fmt.Sprintf("%d", int64(r.ResetAfter/time.Millisecond)),
		"X-RateLimit-Max":           fmt.Sprintf("%d", r.Limit),
		"X-RateLimit-Last-Reset":    fmt.Sprintf("%d", r.LastReset.UnixMilli()),
		"X-RateLimit-Request-Count": fmt.Sprintf("%d", r.RequestCount),
	}
}

// Check enforces bucket's limit for subject with a cost of 1.
func (l *Limiter) Check(ctx context.Context, bucket, subject string, setting config.RateLimitSetting) (Result, error) {
	return l.CheckWithCost(ctx, bucket, subject, setting, 1)
}

// CheckWithCost enforces bucket's limit for subject, adding cost to the
// window counter (cost is usually 1 request; Effis buckets add byte size
// on top per §4.2's file_size_limit extension).
func (l *Limiter) CheckWithCost(ctx context.Context, bucket, subject string, setting config.RateLimitSetting, cost int64) (Result, error) {
	key := fmt.Sprintf("rl:%s:%s", bucket, subject)
	window := time.Duration(setting.ResetAfter) * time.Second

	count, err := l.cache.Incr(ctx, key, cost, window)
	if err != nil {
		return Result{}, apierror.Internal("rate limiter unavailable", err)
	}

	ttl, err := l.cache.TTL(ctx, key)
	if err != nil {
		return Result{}, apierror.Internal("rate limiter unavailable", err)
	}
	if ttl <= 0 {
		ttl = window
	}

	limit := int64(setting.Limit)
	if setting.FileSizeLimit > 0 {
		limit += setting.FileSizeLimit
	}

	res := Result{
		Bucket:       bucket,
		Limit:        setting.Limit,
		Remaining:    max0(setting.Limit - int(count)),
		ResetAfter:   ttl,
		LastReset:    time.Now().Add(-(window - ttl)),
		RequestCount: int(count),
	}

	if count > limit {
		return res, apierror.RateLimitedMs(ttl.Milliseconds())
	}
	return res, nil
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
