package ids

import "testing"

func TestGenerateEncodesWorkerID(t *testing.T) {
	g := NewGenerator(42)
	id := g.Generate()
	if got := WorkerID(id); got != 42 {
		t.Errorf("WorkerID(id) = %d, want 42", got)
	}
}

func TestGenerateSequenceIncrements(t *testing.T) {
	g := NewGenerator(1)
	first := g.Generate()
	second := g.Generate()
	if second <= first {
		t.Errorf("second id %d should be greater than first %d", second, first)
	}
	if second-first != 1 {
		t.Errorf("consecutive ids within the same second should differ by 1 in the sequence bits, got delta %d", second-first)
	}
}

func TestGenerateSequenceWraps(t *testing.T) {
	g := NewGenerator(0)
	var last uint64
	for i := 0; i < 257; i++ {
		last = g.Generate()
	}
	if WorkerID(last) != 0 {
		t.Fatalf("worker id should remain stable across sequence wrap, got %d", WorkerID(last))
	}
}

func TestTimestampRoundTrips(t *testing.T) {
	g := NewGenerator(7)
	id := g.Generate()
	ts := Timestamp(id)
	if ts.Unix() < Epoch {
		t.Errorf("decoded timestamp %v predates the snowflake epoch", ts)
	}
}
