package apierror

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypeStatusCodes(t *testing.T) {
	cases := []struct {
		kind Type
		want int
	}{
		{Unauthorized, 401},
		{Forbidden, 403},
		{NotFound, 404},
		{Validation, 422},
		{Conflict, 409},
		{RateLimited, 429},
		{Misdirected, 421},
		{Server, 500},
	}
	for _, c := range cases {
		if got := c.kind.Status(); got != c.want {
			t.Errorf("Type(%s).Status() = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestAsFindsDirectError(t *testing.T) {
	err := Validationf("username", "too short")
	got, ok := As(err)
	if !ok || got.Kind != Validation {
		t.Fatalf("As(%v) = %v, %v", err, got, ok)
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	inner := NotFoundf("user %d", 1)
	wrapped := fmt.Errorf("context: %w", inner)
	got, ok := As(wrapped)
	if !ok || got.Kind != NotFound {
		t.Fatalf("As(%v) = %v, %v", wrapped, got, ok)
	}
}

func TestAsRejectsUnrelatedError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	if ok {
		t.Error("As should not match a plain error")
	}
}

func TestInternalNeverLeaksCauseThroughInfo(t *testing.T) {
	cause := errors.New("pq: connection refused on 10.0.0.5:5432")
	err := Internal("rate limiter unavailable", cause)
	if err.Info != "rate limiter unavailable" {
		t.Errorf("Info = %q, should be the sanitized message", err.Info)
	}
	if !errors.Is(err, cause) {
		t.Error("the raw cause should still be reachable via errors.Is/Unwrap for logging")
	}
}
