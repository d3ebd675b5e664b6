package supervisor

import (
	"sync"
	"time"
)

// LogEntry is one captured line of bot output, timestamped at capture time.
// Seq increases monotonically across the life of the ring so readers can
// resume a tail without re-reading history.
type LogEntry struct {
	Seq  int64     `json:"seq"`
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// LogRing is a fixed-capacity buffer of recent bot output. When full, the
// oldest entry is evicted. Appends only happen from the supervisor's process
// callbacks; reads are snapshot copies.
type LogRing struct {
	mu      sync.RWMutex
	entries []LogEntry
	head    int // next write position
	count   int
	seq     int64
	now     func() time.Time
}

// NewLogRing creates a ring holding at most capacity entries.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = 500
	}
	return &LogRing{
		entries: make([]LogEntry, capacity),
		now:     time.Now,
	}
}

// Append adds a line to the ring, evicting the oldest entry if full.
func (r *LogRing) Append(line string) LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := LogEntry{Seq: r.seq, Time: r.now(), Line: line}
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
	return e
}

// Snapshot returns all retained entries, oldest first.
func (r *LogRing) Snapshot() []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LogEntry, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += len(r.entries)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

// Since returns retained entries with a sequence number greater than seq,
// oldest first. Used by the live log tail.
func (r *LogRing) Since(seq int64) []LogEntry {
	all := r.Snapshot()
	for i, e := range all {
		if e.Seq > seq {
			return all[i:]
		}
	}
	return nil
}

// Len returns the number of retained entries.
func (r *LogRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Capacity returns the maximum number of retained entries.
func (r *LogRing) Capacity() int {
	return len(r.entries)
}
