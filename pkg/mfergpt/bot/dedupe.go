package bot

import "sync"

// Dedupe is a bounded set of recently seen cast hashes. Webhook deliveries
// are at-least-once, so every cast is marked before any side effect runs;
// the bound keeps memory flat under sustained traffic by evicting the
// oldest entries first.
type Dedupe struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	head     int
}

// NewDedupe creates a dedupe set holding at most capacity hashes.
func NewDedupe(capacity int) *Dedupe {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Dedupe{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, capacity),
	}
}

// MarkIfNew records a hash and reports whether it was unseen. The mark
// happens atomically with the check, so concurrent deliveries of the same
// cast race to exactly one true.
func (d *Dedupe) MarkIfNew(hash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		return false
	}
	if evicted := d.order[d.head]; evicted != "" {
		delete(d.seen, evicted)
	}
	d.order[d.head] = hash
	d.head = (d.head + 1) % d.capacity
	d.seen[hash] = struct{}{}
	return true
}

// Len returns the number of hashes currently tracked.
func (d *Dedupe) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Reset clears the set.
func (d *Dedupe) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{}, d.capacity)
	d.order = make([]string, d.capacity)
	d.head = 0
}
