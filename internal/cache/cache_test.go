package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGetRoundTrip(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestMemoryGetExpiredIsAbsent(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expired entry should not be returned")
	}
}

func TestMemoryIncrCreatesWithTTL(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	n, err := m.Incr(ctx, "ctr", 1, time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("Incr = %d, %v, want 1, nil", n, err)
	}
	n, err = m.Incr(ctx, "ctr", 1, time.Minute)
	if err != nil || n != 2 {
		t.Fatalf("Incr = %d, %v, want 2, nil", n, err)
	}
	ttl, err := m.TTL(ctx, "ctr")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want a positive duration at most a minute", ttl)
	}
}

func TestMemoryDecrBelowZero(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	if _, err := m.Incr(ctx, "ctr", 1, 0); err != nil {
		t.Fatalf("Incr: %v", err)
	}
	n, err := m.Decr(ctx, "ctr", 1)
	if err != nil || n != 0 {
		t.Fatalf("Decr = %d, %v, want 0, nil", n, err)
	}
}

func TestMemorySetAddRemoveContains(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	if err := m.SetAdd(ctx, "s", "a"); err != nil {
		t.Fatalf("SetAdd: %v", err)
	}
	if err := m.SetAdd(ctx, "s", "b"); err != nil {
		t.Fatalf("SetAdd: %v", err)
	}
	if size, _ := m.SetSize(ctx, "s"); size != 2 {
		t.Errorf("SetSize = %d, want 2", size)
	}
	if ok, _ := m.SetContains(ctx, "s", "a"); !ok {
		t.Error("SetContains(a) should be true")
	}
	if err := m.SetRemove(ctx, "s", "a"); err != nil {
		t.Fatalf("SetRemove: %v", err)
	}
	if ok, _ := m.SetContains(ctx, "s", "a"); ok {
		t.Error("SetContains(a) should be false after removal")
	}
	if size, _ := m.SetSize(ctx, "s"); size != 1 {
		t.Errorf("SetSize = %d, want 1", size)
	}
}
