package ratelimit

import (
	"context"
	"testing"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/config"
)

func TestCheckAllowsUpToLimit(t *testing.T) {
	l := New(cache.NewMemory(0))
	setting := config.RateLimitSetting{Limit: 3, ResetAfter: 5}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := l.Check(ctx, "bucket", "subject", setting); err != nil {
			t.Fatalf("request %d should be allowed, got %v", i, err)
		}
	}
}

func TestCheckRejectsOverLimit(t *testing.T) {
	l := New(cache.NewMemory(0))
	setting := config.RateLimitSetting{Limit: 2, ResetAfter: 5}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := l.Check(ctx, "bucket", "subject", setting); err != nil {
			t.Fatalf("request %d should be allowed, got %v", i, err)
		}
	}
	_, err := l.Check(ctx, "bucket", "subject", setting)
	apiErr, ok := apierror.As(err)
	if !ok || apiErr.Kind != apierror.RateLimited {
		t.Fatalf("3rd request should be RATE_LIMITED, got %v", err)
	}
}

func TestCheckIsolatesBucketsAndSubjects(t *testing.T) {
	l := New(cache.NewMemory(0))
	setting := config.RateLimitSetting{Limit: 1, ResetAfter: 5}
	ctx := context.Background()

	if _, err := l.Check(ctx, "a", "user1", setting); err != nil {
		t.Fatalf("first hit on bucket a: %v", err)
	}
	if _, err := l.Check(ctx, "b", "user1", setting); err != nil {
		t.Fatalf("distinct bucket should not share the counter: %v", err)
	}
	if _, err := l.Check(ctx, "a", "user2", setting); err != nil {
		t.Fatalf("distinct subject should not share the counter: %v", err)
	}
}

func TestCheckWithCostAddsFileSizeLimit(t *testing.T) {
	l := New(cache.NewMemory(0))
	setting := config.RateLimitSetting{Limit: 1, ResetAfter: 5, FileSizeLimit: 1000}
	ctx := context.Background()

	if _, err := l.CheckWithCost(ctx, "assets", "user1", setting, 500); err != nil {
		t.Fatalf("cost within limit+file_size_limit should pass: %v", err)
	}
	if _, err := l.CheckWithCost(ctx, "assets", "user1", setting, 500); err != nil {
		t.Fatalf("cumulative cost still within limit+file_size_limit should pass: %v", err)
	}
	_, err := l.CheckWithCost(ctx, "assets", "user1", setting, 500)
	if err == nil {
		t.Fatal("cumulative cost beyond limit+file_size_limit should be rate limited")
	}
}
