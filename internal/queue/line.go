package queue

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
	"time"
)

// line holds the ordered waiting set for a single specialization.
// Methods are not safe for concurrent use on their own; the manager
// holds l.mu across every operation, including the persistence write,
// so memory and durable store cannot diverge under concurrent callers.
type line struct {
	mu   sync.Mutex
	heap entryHeap
	byID map[string]*lineItem
	seq  uint64
}

// lineItem wraps an entry with its heap bookkeeping. seq preserves
// insertion order so entries with identical priority and join time
// still dequeue first-in first-out.
type lineItem struct {
	entry *Entry
	seq   uint64
	index int
}

func newLine() *line {
	return &line{byID: make(map[string]*lineItem)}
}

// entryHeap orders by priority descending, then joinedAt ascending,
// then insertion sequence. Same rule the snapshot sort uses.
type entryHeap []*lineItem

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.entry.Priority != b.entry.Priority {
		return a.entry.Priority > b.entry.Priority
	}
	if !a.entry.JoinedAt.Equal(b.entry.JoinedAt) {
		return a.entry.JoinedAt.Before(b.entry.JoinedAt)
	}
	return a.seq < b.seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	item := x.(*lineItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// enqueue inserts a waiting entry, enforcing capacity. JoinedAt is
// stamped if the caller left it zero.
func (l *line) enqueue(e *Entry, capacity int, now time.Time) error {
	if len(l.heap) >= capacity {
		return fmt.Errorf("%w: %d of %d slots taken", ErrCapacityExceeded, len(l.heap), capacity)
	}
	if e.JoinedAt.IsZero() {
		e.JoinedAt = now
	}
	e.State = StateWaiting
	l.push(e)
	return nil
}

// restore re-inserts an entry without a capacity check. Used for the
// startup rebuild and for rolling back a failed persistence write; the
// entry keeps its original JoinedAt, so it lands back in serve order.
func (l *line) restore(e *Entry) {
	e.State = StateWaiting
	e.ServedAt = nil
	e.RemovedAt = nil
	e.RemovalReason = ""
	l.push(e)
}

func (l *line) push(e *Entry) {
	l.seq++
	item := &lineItem{entry: e, seq: l.seq}
	heap.Push(&l.heap, item)
	l.byID[e.ID] = item
}

// unenqueue drops a just-added entry as if enqueue never happened.
func (l *line) unenqueue(entryID string) {
	if item, ok := l.byID[entryID]; ok {
		heap.Remove(&l.heap, item.index)
		delete(l.byID, entryID)
	}
}

// dequeueNext serves the highest-priority entry, earliest joined among
// ties.
func (l *line) dequeueNext(now time.Time) (*Entry, error) {
	if len(l.heap) == 0 {
		return nil, ErrEmptyQueue
	}
	item := heap.Pop(&l.heap).(*lineItem)
	delete(l.byID, item.entry.ID)
	markServed(item.entry, now)
	return item.entry, nil
}

// serve takes a specific waiting entry out of order.
func (l *line) serve(entryID string, now time.Time) (*Entry, error) {
	item, ok := l.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	heap.Remove(&l.heap, item.index)
	delete(l.byID, entryID)
	markServed(item.entry, now)
	return item.entry, nil
}

// remove transitions a waiting entry to removed. Removing an entry that
// is already terminal fails ErrEntryNotFound so statistics never count
// a removal twice.
func (l *line) remove(entryID, reason string, now time.Time) (*Entry, error) {
	item, ok := l.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	heap.Remove(&l.heap, item.index)
	delete(l.byID, entryID)
	e := item.entry
	e.State = StateRemoved
	t := now
	e.RemovedAt = &t
	e.RemovalReason = reason
	return e, nil
}

// reprioritize changes an entry's priority in place. JoinedAt is kept,
// so the entry tie-breaks against its new priority class by its
// original arrival time.
func (l *line) reprioritize(entryID string, p Priority) (*Entry, error) {
	item, ok := l.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	item.entry.Priority = p
	heap.Fix(&l.heap, item.index)
	return item.entry, nil
}

// snapshot returns the waiting entries in serve order, 1-indexed.
// It copies and sorts, leaving the heap untouched.
func (l *line) snapshot() []Entry {
	items := make([]*lineItem, len(l.heap))
	copy(items, l.heap)
	// sort.Slice swaps slice elements directly, so the live heap's
	// index bookkeeping is not disturbed.
	sort.Slice(items, func(i, j int) bool {
		return entryHeap(items).Less(i, j)
	})
	out := make([]Entry, len(items))
	for i, item := range items {
		out[i] = *item.entry
	}
	return out
}

func (l *line) waitingCount() int {
	return len(l.heap)
}

// hasPatient reports whether the patient already has a waiting entry in
// this line.
func (l *line) hasPatient(patientID int64) bool {
	for _, item := range l.byID {
		if item.entry.PatientID == patientID {
			return true
		}
	}
	return false
}

func markServed(e *Entry, now time.Time) {
	e.State = StateServed
	t := now
	e.ServedAt = &t
}
