package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(id string, patientID int64, p Priority) *Entry {
	return &Entry{
		ID:               id,
		PatientID:        patientID,
		SpecializationID: 1,
		Priority:         p,
	}
}

func TestLineOrdersByPriorityThenArrival(t *testing.T) {
	l := newLine()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.enqueue(testEntry("a", 1, PriorityNormal), 10, base))
	require.NoError(t, l.enqueue(testEntry("b", 2, PriorityUrgent), 10, base.Add(time.Minute)))
	require.NoError(t, l.enqueue(testEntry("c", 3, PrioritySuperUrgent), 10, base.Add(2*time.Minute)))
	require.NoError(t, l.enqueue(testEntry("d", 4, PriorityUrgent), 10, base.Add(3*time.Minute)))

	var order []string
	for l.waitingCount() > 0 {
		e, err := l.dequeueNext(base.Add(time.Hour))
		require.NoError(t, err)
		order = append(order, e.ID)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, order)
}

func TestLineFIFOWithinSamePriority(t *testing.T) {
	l := newLine()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Identical JoinedAt; insertion order must break the tie.
	for i, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, l.enqueue(testEntry(id, int64(i+1), PriorityNormal), 10, at))
	}

	for _, want := range []string{"p1", "p2", "p3"} {
		e, err := l.dequeueNext(at.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, want, e.ID)
	}
}

func TestLineCapacity(t *testing.T) {
	l := newLine()
	now := time.Now()

	require.NoError(t, l.enqueue(testEntry("a", 1, PriorityNormal), 2, now))
	require.NoError(t, l.enqueue(testEntry("b", 2, PriorityUrgent), 2, now))

	err := l.enqueue(testEntry("c", 3, PrioritySuperUrgent), 2, now)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, l.waitingCount())

	// Serving one frees a slot.
	_, err = l.dequeueNext(now)
	require.NoError(t, err)
	assert.NoError(t, l.enqueue(testEntry("c", 3, PrioritySuperUrgent), 2, now))
}

func TestLineDequeueEmpty(t *testing.T) {
	l := newLine()
	_, err := l.dequeueNext(time.Now())
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestLineServeSpecific(t *testing.T) {
	l := newLine()
	now := time.Now()
	require.NoError(t, l.enqueue(testEntry("a", 1, PrioritySuperUrgent), 10, now))
	require.NoError(t, l.enqueue(testEntry("b", 2, PriorityNormal), 10, now))

	servedAt := now.Add(5 * time.Minute)
	e, err := l.serve("b", servedAt)
	require.NoError(t, err)
	assert.Equal(t, StateServed, e.State)
	require.NotNil(t, e.ServedAt)
	assert.True(t, e.ServedAt.Equal(servedAt))
	assert.Equal(t, 1, l.waitingCount())

	// A terminal entry is gone from the line.
	_, err = l.serve("b", servedAt)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestLineRemove(t *testing.T) {
	l := newLine()
	now := time.Now()
	require.NoError(t, l.enqueue(testEntry("a", 1, PriorityNormal), 10, now))

	e, err := l.remove("a", "left without being seen", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, e.State)
	assert.Equal(t, "left without being seen", e.RemovalReason)
	require.NotNil(t, e.RemovedAt)

	_, err = l.remove("a", "again", now)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = l.remove("ghost", "whatever", now)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestLineReprioritizeKeepsArrivalTime(t *testing.T) {
	l := newLine()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.enqueue(testEntry("early", 1, PriorityNormal), 10, base))
	require.NoError(t, l.enqueue(testEntry("late", 2, PriorityNormal), 10, base.Add(time.Minute)))
	require.NoError(t, l.enqueue(testEntry("urgent", 3, PriorityUrgent), 10, base.Add(2*time.Minute)))

	e, err := l.reprioritize("late", PriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, e.Priority)
	assert.True(t, e.JoinedAt.Equal(base.Add(time.Minute)))

	// late outranks urgent now: same priority, earlier arrival.
	order := []string{}
	for l.waitingCount() > 0 {
		e, err := l.dequeueNext(base.Add(time.Hour))
		require.NoError(t, err)
		order = append(order, e.ID)
	}
	assert.Equal(t, []string{"late", "urgent", "early"}, order)
}

func TestLineRestoreAfterServe(t *testing.T) {
	l := newLine()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.enqueue(testEntry("a", 1, PriorityNormal), 10, base))
	require.NoError(t, l.enqueue(testEntry("b", 2, PriorityNormal), 10, base.Add(time.Minute)))

	e, err := l.dequeueNext(base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "a", e.ID)

	// Rolling the serve back puts a ahead of b again.
	l.restore(e)
	assert.Equal(t, StateWaiting, e.State)
	assert.Nil(t, e.ServedAt)

	next, err := l.dequeueNext(base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "a", next.ID)
}

func TestLineSnapshotMatchesServeOrder(t *testing.T) {
	l := newLine()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.enqueue(testEntry("n1", 1, PriorityNormal), 10, base))
	require.NoError(t, l.enqueue(testEntry("u1", 2, PriorityUrgent), 10, base.Add(time.Minute)))
	require.NoError(t, l.enqueue(testEntry("n2", 3, PriorityNormal), 10, base.Add(2*time.Minute)))
	require.NoError(t, l.enqueue(testEntry("s1", 4, PrioritySuperUrgent), 10, base.Add(3*time.Minute)))

	snap := l.snapshot()
	ids := make([]string, len(snap))
	for i, e := range snap {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"s1", "u1", "n1", "n2"}, ids)

	// Snapshot is a copy; the heap still serves the same order.
	var served []string
	for l.waitingCount() > 0 {
		e, err := l.dequeueNext(base.Add(time.Hour))
		require.NoError(t, err)
		served = append(served, e.ID)
	}
	assert.Equal(t, ids, served)
}

func TestLineHasPatient(t *testing.T) {
	l := newLine()
	now := time.Now()
	require.NoError(t, l.enqueue(testEntry("a", 42, PriorityNormal), 10, now))

	assert.True(t, l.hasPatient(42))
	assert.False(t, l.hasPatient(43))

	_, err := l.dequeueNext(now)
	require.NoError(t, err)
	assert.False(t, l.hasPatient(42))
}

func TestParsePriority(t *testing.T) {
	for s, want := range map[string]Priority{
		"normal":       PriorityNormal,
		"urgent":       PriorityUrgent,
		"super_urgent": PrioritySuperUrgent,
	} {
		p, err := ParsePriority(s)
		require.NoError(t, err)
		assert.Equal(t, want, p)
		assert.Equal(t, s, p.String())
	}

	_, err := ParsePriority("critical")
	assert.True(t, errors.Is(err, ErrValidation))
}
