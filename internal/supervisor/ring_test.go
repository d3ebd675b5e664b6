package supervisor

import (
	"fmt"
	"testing"
)

func TestLogRingAppendAndSnapshot(t *testing.T) {
	r := NewLogRing(5)

	r.Append("one")
	r.Append("two")
	r.Append("three")

	entries := r.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"one", "two", "three"} {
		if entries[i].Line != want {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Line, want)
		}
	}
	if entries[0].Seq >= entries[1].Seq || entries[1].Seq >= entries[2].Seq {
		t.Error("sequence numbers must be strictly increasing")
	}
}

func TestLogRingEvictsOldest(t *testing.T) {
	r := NewLogRing(3)
	for i := 1; i <= 5; i++ {
		r.Append(fmt.Sprintf("line %d", i))
	}

	if r.Len() != 3 {
		t.Fatalf("expected 3 retained entries, got %d", r.Len())
	}
	entries := r.Snapshot()
	for i, want := range []string{"line 3", "line 4", "line 5"} {
		if entries[i].Line != want {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Line, want)
		}
	}
}

func TestLogRingSince(t *testing.T) {
	r := NewLogRing(10)
	r.Append("a")
	second := r.Append("b")
	r.Append("c")

	tail := r.Since(second.Seq)
	if len(tail) != 1 || tail[0].Line != "c" {
		t.Errorf("expected [c], got %v", tail)
	}
	if got := r.Since(second.Seq + 10); got != nil {
		t.Errorf("future seq should return nil, got %v", got)
	}
	if got := r.Since(0); len(got) != 3 {
		t.Errorf("seq 0 should return everything, got %v", got)
	}
}

func TestLogRingDefaultCapacity(t *testing.T) {
	r := NewLogRing(0)
	if r.Capacity() != 500 {
		t.Errorf("expected default capacity 500, got %d", r.Capacity())
	}
}
