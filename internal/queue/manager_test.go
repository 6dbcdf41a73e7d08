package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpecs struct {
	infos map[int64]SpecializationInfo
}

func (f *fakeSpecs) CapacityAndStatus(_ context.Context, id int64) (SpecializationInfo, error) {
	info, ok := f.infos[id]
	if !ok {
		return SpecializationInfo{}, fmt.Errorf("%w: specialization %d not found", ErrValidation, id)
	}
	return info, nil
}

type fakePatients struct {
	known map[int64]bool
}

func (f *fakePatients) Exists(_ context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

// fakeStore records writes and can be told to fail them.
type fakeStore struct {
	mu         sync.Mutex
	rows       map[string]Entry
	loaded     []Entry
	failSave   bool
	failUpdate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]Entry)}
}

func (f *fakeStore) LoadActiveEntries(_ context.Context) ([]Entry, error) {
	return f.loaded, nil
}

func (f *fakeStore) Save(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("database down")
	}
	f.rows[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateState(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errors.New("database down")
	}
	f.rows[e.ID] = e
	return nil
}

func (f *fakeStore) row(id string) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *fakeStore, *fixedClock) {
	t.Helper()
	specs := &fakeSpecs{infos: map[int64]SpecializationInfo{
		1: {Capacity: 10, Active: true},
		2: {Capacity: 2, Active: true},
		3: {Capacity: 10, Active: false},
	}}
	patients := &fakePatients{known: map[int64]bool{10: true, 11: true, 12: true, 13: true}}
	store := newFakeStore()
	clock := &fixedClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	m := NewManager(specs, patients, store, NewEstimator(15*time.Minute), zerolog.Nop())
	m.now = clock.Now
	return m, store, clock
}

func TestAddToQueueValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, Priority(7), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.AddToQueue(ctx, 10, 99, PriorityNormal, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.AddToQueue(ctx, 10, 3, PriorityNormal, "")
	assert.ErrorIs(t, err, ErrInactiveSpecialization)

	_, err = m.AddToQueue(ctx, 999, 1, PriorityNormal, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddToQueuePersistsAndServesInPriorityOrder(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	normal, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "CAR-001")
	require.NoError(t, err)
	clock.advance(time.Minute)
	urgent, err := m.AddToQueue(ctx, 11, 1, PriorityUrgent, "CAR-002")
	require.NoError(t, err)

	assert.Equal(t, StateWaiting, store.row(normal.ID).State)
	assert.Equal(t, StateWaiting, store.row(urgent.ID).State)

	clock.advance(5 * time.Minute)
	first, err := m.ServeNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, urgent.ID, first.ID)
	assert.Equal(t, StateServed, store.row(urgent.ID).State)

	second, err := m.ServeNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, normal.ID, second.ID)

	_, err = m.ServeNext(ctx, 1)
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestAddToQueueDuplicatePatient(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)

	_, err = m.AddToQueue(ctx, 10, 1, PriorityUrgent, "")
	assert.ErrorIs(t, err, ErrValidation)

	// Same patient may wait in a different specialization.
	_, err = m.AddToQueue(ctx, 10, 2, PriorityNormal, "")
	assert.NoError(t, err)
}

func TestAddToQueueCapacity(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 2, PriorityNormal, "")
	require.NoError(t, err)
	_, err = m.AddToQueue(ctx, 11, 2, PriorityNormal, "")
	require.NoError(t, err)

	_, err = m.AddToQueue(ctx, 12, 2, PrioritySuperUrgent, "")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, m.GetQueue(2), 2)

	// Serving one frees a slot.
	_, err = m.ServeNext(ctx, 2)
	require.NoError(t, err)
	_, err = m.AddToQueue(ctx, 12, 2, PrioritySuperUrgent, "")
	assert.NoError(t, err)
}

func TestAddToQueueRollsBackWhenSaveFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	store.failSave = true
	_, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, m.GetQueue(1))

	// The failed add left no trace; the patient can retry.
	store.failSave = false
	_, err = m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	assert.NoError(t, err)
}

func TestServeSpecificOutOfOrder(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, PrioritySuperUrgent, "")
	require.NoError(t, err)
	clock.advance(time.Minute)
	target, err := m.AddToQueue(ctx, 11, 1, PriorityNormal, "")
	require.NoError(t, err)

	served, err := m.ServeSpecific(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, served.ID)
	assert.Equal(t, StateServed, store.row(target.ID).State)
	assert.Len(t, m.GetQueue(1), 1)

	_, err = m.ServeSpecific(ctx, target.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = m.ServeSpecific(ctx, "no-such-entry")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestServeRollsBackWhenUpdateFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	e, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)

	store.failUpdate = true
	_, err = m.ServeNext(ctx, 1)
	assert.ErrorIs(t, err, ErrPersistence)

	// The entry is back in line and serveable once the store recovers.
	require.Len(t, m.GetQueue(1), 1)
	assert.Equal(t, StateWaiting, m.GetQueue(1)[0].Entry.State)

	store.failUpdate = false
	served, err := m.ServeNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, e.ID, served.ID)
}

func TestRemoveFromQueue(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	e, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)
	clock.advance(2 * time.Minute)

	removed, err := m.RemoveFromQueue(ctx, e.ID, "left without being seen")
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, removed.State)
	assert.Equal(t, "left without being seen", removed.RemovalReason)
	assert.Equal(t, StateRemoved, store.row(e.ID).State)
	assert.Empty(t, m.GetQueue(1))

	_, err = m.RemoveFromQueue(ctx, e.ID, "again")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRemoveRollsBackWhenUpdateFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	e, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)

	store.failUpdate = true
	_, err = m.RemoveFromQueue(ctx, e.ID, "changed their mind")
	assert.ErrorIs(t, err, ErrPersistence)

	positions := m.GetQueue(1)
	require.Len(t, positions, 1)
	assert.Equal(t, StateWaiting, positions[0].Entry.State)
	assert.Empty(t, positions[0].Entry.RemovalReason)
}

func TestReprioritizeMovesEntryAhead(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, PriorityUrgent, "")
	require.NoError(t, err)
	clock.advance(time.Minute)
	late, err := m.AddToQueue(ctx, 11, 1, PriorityNormal, "")
	require.NoError(t, err)

	updated, err := m.Reprioritize(ctx, late.ID, PrioritySuperUrgent)
	require.NoError(t, err)
	assert.Equal(t, PrioritySuperUrgent, updated.Priority)
	assert.True(t, updated.JoinedAt.Equal(late.JoinedAt))
	assert.Equal(t, PrioritySuperUrgent, store.row(late.ID).Priority)

	first, err := m.ServeNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, late.ID, first.ID)
}

func TestReprioritizeRollsBackWhenUpdateFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	e, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)

	store.failUpdate = true
	_, err = m.Reprioritize(ctx, e.ID, PriorityUrgent)
	assert.ErrorIs(t, err, ErrPersistence)

	positions := m.GetQueue(1)
	require.Len(t, positions, 1)
	assert.Equal(t, PriorityNormal, positions[0].Entry.Priority)
}

func TestReprioritizeValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Reprioritize(ctx, "no-such-entry", PriorityUrgent)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	e, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)
	_, err = m.Reprioritize(ctx, e.ID, Priority(-1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetQueuePositionsAndEstimates(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	for i, p := range []Priority{PriorityNormal, PriorityUrgent, PriorityNormal} {
		_, err := m.AddToQueue(ctx, int64(10+i), 1, p, "")
		require.NoError(t, err)
		clock.advance(time.Minute)
	}

	positions := m.GetQueue(1)
	require.Len(t, positions, 3)
	for i, p := range positions {
		assert.Equal(t, i+1, p.Position)
		// No serve history yet, so the default 15 minutes per position.
		assert.Equal(t, time.Duration(i+1)*15*time.Minute, p.EstimatedWait)
	}
	assert.Equal(t, PriorityUrgent, positions[0].Entry.Priority)
}

func TestEstimateSharedAcrossPriorities(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, PrioritySuperUrgent, "")
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = m.AddToQueue(ctx, 11, 1, PriorityNormal, "")
	require.NoError(t, err)

	positions := m.GetQueue(1)
	require.Len(t, positions, 2)
	// The estimate depends on position alone, not on the entry's own
	// priority class.
	assert.Equal(t, positions[0].EstimatedWait*2, positions[1].EstimatedWait)
}

func TestGetStatistics(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddToQueue(ctx, 10, 1, PriorityNormal, "")
	require.NoError(t, err)
	clock.advance(10 * time.Minute)
	_, err = m.AddToQueue(ctx, 11, 1, PriorityUrgent, "")
	require.NoError(t, err)
	clock.advance(5 * time.Minute)

	stats, err := m.GetStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentLength)
	assert.Equal(t, 10, stats.Capacity)
	assert.InDelta(t, 0.2, stats.CapacityUtilization, 1e-9)
	assert.Equal(t, 15*time.Minute, stats.LongestWait)
	assert.Equal(t, 1, stats.CountByPriority[PriorityNormal])
	assert.Equal(t, 1, stats.CountByPriority[PriorityUrgent])
	assert.Equal(t, 0, stats.CountByPriority[PrioritySuperUrgent])

	_, err = m.GetStatistics(ctx, 99)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRebuildRestoresWaitingEntries(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	base := clock.Now().Add(-time.Hour)
	store.loaded = []Entry{
		{ID: "old-normal", PatientID: 10, SpecializationID: 1, Priority: PriorityNormal, State: StateWaiting, JoinedAt: base},
		{ID: "old-urgent", PatientID: 11, SpecializationID: 1, Priority: PriorityUrgent, State: StateWaiting, JoinedAt: base.Add(time.Minute)},
	}
	require.NoError(t, m.Rebuild(ctx))

	// Priority order survives the restart, and entries stay addressable
	// by ID.
	first, err := m.ServeNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "old-urgent", first.ID)

	served, err := m.ServeSpecific(ctx, "old-normal")
	require.NoError(t, err)
	assert.Equal(t, StateServed, served.State)
}

func TestConcurrentAddsRespectCapacity(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.AddToQueue(ctx, int64(10+i), 2, PriorityNormal, "")
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, rejected)
	assert.Len(t, m.GetQueue(2), 2)
}
