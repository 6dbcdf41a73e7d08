package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultPersistTimeout = 3 * time.Second

// SpecializationInfo is what the manager needs to know about a
// specialization before admitting a patient.
type SpecializationInfo struct {
	Capacity int
	Active   bool
}

// SpecializationProvider resolves a specialization's capacity and
// active flag. Implementations return an error wrapping ErrValidation
// for unknown keys.
type SpecializationProvider interface {
	CapacityAndStatus(ctx context.Context, specializationID int64) (SpecializationInfo, error)
}

// PatientProvider answers whether a patient record exists.
type PatientProvider interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

// Store is the durability sink for queue entries. Writes happen
// synchronously inside each mutating operation, before success is
// reported.
type Store interface {
	LoadActiveEntries(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, e Entry) error
	UpdateState(ctx context.Context, e Entry) error
}

// Position is one row of an annotated snapshot.
type Position struct {
	Position      int
	EstimatedWait time.Duration
	Entry         Entry
}

// Stats are the per-specialization queue analytics.
type Stats struct {
	CurrentLength       int
	Capacity            int
	CapacityUtilization float64
	AverageWait         time.Duration
	LongestWait         time.Duration
	CountByPriority     map[Priority]int
}

// Manager multiplexes one line per specialization and mediates every
// queue operation: collaborator validation in front, persistence
// behind, wait estimation on reads. Construct one per process and share
// it; all methods are safe for concurrent use.
type Manager struct {
	specs    SpecializationProvider
	patients PatientProvider
	store    Store
	est      *Estimator
	log      zerolog.Logger

	persistTimeout time.Duration
	now            func() time.Time

	mu    sync.RWMutex
	lines map[int64]*line
	index map[string]int64 // entry ID -> specialization ID, waiting entries only
}

func NewManager(specs SpecializationProvider, patients PatientProvider, store Store, est *Estimator, log zerolog.Logger) *Manager {
	return &Manager{
		specs:          specs,
		patients:       patients,
		store:          store,
		est:            est,
		log:            log.With().Str("component", "queue-manager").Logger(),
		persistTimeout: defaultPersistTimeout,
		now:            time.Now,
		lines:          make(map[int64]*line),
		index:          make(map[string]int64),
	}
}

// SetPersistTimeout bounds every durable write. Zero or negative keeps
// the default.
func (m *Manager) SetPersistTimeout(d time.Duration) {
	if d > 0 {
		m.persistTimeout = d
	}
}

// Rebuild loads all waiting entries from the store into memory. Called
// once at startup, before the manager is shared.
func (m *Manager) Rebuild(ctx context.Context) error {
	entries, err := m.store.LoadActiveEntries(ctx)
	if err != nil {
		return fmt.Errorf("%w: load active entries: %v", ErrPersistence, err)
	}
	for i := range entries {
		e := entries[i]
		l := m.lineFor(e.SpecializationID)
		l.mu.Lock()
		l.restore(&e)
		l.mu.Unlock()
		m.mu.Lock()
		m.index[e.ID] = e.SpecializationID
		m.mu.Unlock()
	}
	m.log.Info().Int("entries", len(entries)).Msg("queue state rebuilt from store")
	return nil
}

// AddToQueue validates the request against the collaborators, enqueues
// the patient and persists the new entry. The in-memory insert is
// rolled back if the durable write fails.
func (m *Manager) AddToQueue(ctx context.Context, patientID, specializationID int64, p Priority, ticketCode string) (Entry, error) {
	if !p.Valid() {
		return Entry{}, fmt.Errorf("%w: priority out of range", ErrValidation)
	}

	info, err := m.specs.CapacityAndStatus(ctx, specializationID)
	if err != nil {
		return Entry{}, err
	}
	if !info.Active {
		return Entry{}, fmt.Errorf("%w: specialization %d", ErrInactiveSpecialization, specializationID)
	}

	ok, err := m.patients.Exists(ctx, patientID)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: patient lookup: %v", ErrPersistence, err)
	}
	if !ok {
		return Entry{}, fmt.Errorf("%w: patient %d not found", ErrValidation, patientID)
	}

	l := m.lineFor(specializationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasPatient(patientID) {
		return Entry{}, fmt.Errorf("%w: patient %d is already waiting in this queue", ErrValidation, patientID)
	}

	e := &Entry{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		SpecializationID: specializationID,
		TicketCode:       ticketCode,
		Priority:         p,
	}
	if err := l.enqueue(e, info.Capacity, m.now()); err != nil {
		return Entry{}, err
	}

	if err := m.persist(ctx, func(pctx context.Context) error { return m.store.Save(pctx, *e) }); err != nil {
		l.unenqueue(e.ID)
		m.log.Error().Err(err).Str("entry_id", e.ID).Msg("enqueue rolled back, save failed")
		return Entry{}, fmt.Errorf("%w: save entry: %v", ErrPersistence, err)
	}

	m.mu.Lock()
	m.index[e.ID] = specializationID
	m.mu.Unlock()

	return *e, nil
}

// ServeNext serves the highest-priority waiting entry; ties go to the
// earliest arrival.
func (m *Manager) ServeNext(ctx context.Context, specializationID int64) (Entry, error) {
	l := m.lineFor(specializationID)
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.dequeueNext(m.now())
	if err != nil {
		return Entry{}, err
	}
	return m.commitTerminal(ctx, l, e)
}

// ServeSpecific serves a particular entry regardless of its position,
// for staff taking a patient out of strict order.
func (m *Manager) ServeSpecific(ctx context.Context, entryID string) (Entry, error) {
	l, err := m.lineForEntry(entryID)
	if err != nil {
		return Entry{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.serve(entryID, m.now())
	if err != nil {
		return Entry{}, err
	}
	return m.commitTerminal(ctx, l, e)
}

// RemoveFromQueue transitions a waiting entry to removed with a reason
// (left without being seen, registered in error, ...).
func (m *Manager) RemoveFromQueue(ctx context.Context, entryID, reason string) (Entry, error) {
	l, err := m.lineForEntry(entryID)
	if err != nil {
		return Entry{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.remove(entryID, reason, m.now())
	if err != nil {
		return Entry{}, err
	}
	if err := m.persist(ctx, func(pctx context.Context) error { return m.store.UpdateState(pctx, *e) }); err != nil {
		l.restore(e)
		m.log.Error().Err(err).Str("entry_id", e.ID).Msg("removal rolled back, update failed")
		return Entry{}, fmt.Errorf("%w: update entry: %v", ErrPersistence, err)
	}
	m.forget(entryID)
	return *e, nil
}

// Reprioritize updates a waiting entry's priority and re-sorts the
// line. JoinedAt is untouched, so the entry keeps its arrival-time
// tie-break within the new priority class.
func (m *Manager) Reprioritize(ctx context.Context, entryID string, p Priority) (Entry, error) {
	if !p.Valid() {
		return Entry{}, fmt.Errorf("%w: priority out of range", ErrValidation)
	}
	l, err := m.lineForEntry(entryID)
	if err != nil {
		return Entry{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.byID[entryID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	prev := item.entry.Priority

	e, err := l.reprioritize(entryID, p)
	if err != nil {
		return Entry{}, err
	}
	if err := m.persist(ctx, func(pctx context.Context) error { return m.store.UpdateState(pctx, *e) }); err != nil {
		l.reprioritize(entryID, prev)
		m.log.Error().Err(err).Str("entry_id", e.ID).Msg("reprioritize rolled back, update failed")
		return Entry{}, fmt.Errorf("%w: update entry: %v", ErrPersistence, err)
	}
	return *e, nil
}

// GetQueue returns the specialization's waiting entries in serve order,
// 1-indexed and annotated with estimated waits.
func (m *Manager) GetQueue(specializationID int64) []Position {
	l := m.lineFor(specializationID)
	l.mu.Lock()
	entries := l.snapshot()
	l.mu.Unlock()

	out := make([]Position, len(entries))
	for i, e := range entries {
		out[i] = Position{
			Position:      i + 1,
			EstimatedWait: m.est.Estimate(specializationID, i+1),
			Entry:         e,
		}
	}
	return out
}

// GetStatistics derives the aggregate metrics for one specialization
// from the current snapshot and the estimator's serve history.
func (m *Manager) GetStatistics(ctx context.Context, specializationID int64) (Stats, error) {
	info, err := m.specs.CapacityAndStatus(ctx, specializationID)
	if err != nil {
		return Stats{}, err
	}

	l := m.lineFor(specializationID)
	l.mu.Lock()
	entries := l.snapshot()
	l.mu.Unlock()

	now := m.now()
	stats := Stats{
		CurrentLength: len(entries),
		Capacity:      info.Capacity,
		AverageWait:   m.est.Average(specializationID),
		CountByPriority: map[Priority]int{
			PriorityNormal:      0,
			PriorityUrgent:      0,
			PrioritySuperUrgent: 0,
		},
	}
	if info.Capacity > 0 {
		stats.CapacityUtilization = float64(len(entries)) / float64(info.Capacity)
	}
	for _, e := range entries {
		stats.CountByPriority[e.Priority]++
		if w := e.WaitTime(now); w > stats.LongestWait {
			stats.LongestWait = w
		}
	}
	return stats, nil
}

// commitTerminal persists a serve transition, rolling the entry back
// into the line on failure, and feeds the estimator on success.
// Caller holds l.mu.
func (m *Manager) commitTerminal(ctx context.Context, l *line, e *Entry) (Entry, error) {
	if err := m.persist(ctx, func(pctx context.Context) error { return m.store.UpdateState(pctx, *e) }); err != nil {
		l.restore(e)
		m.log.Error().Err(err).Str("entry_id", e.ID).Msg("serve rolled back, update failed")
		return Entry{}, fmt.Errorf("%w: update entry: %v", ErrPersistence, err)
	}
	m.est.RecordServe(e.SpecializationID, e.JoinedAt, *e.ServedAt)
	m.forget(e.ID)
	return *e, nil
}

func (m *Manager) persist(ctx context.Context, write func(context.Context) error) error {
	pctx, cancel := context.WithTimeout(ctx, m.persistTimeout)
	defer cancel()
	return write(pctx)
}

// lineFor returns the specialization's line, creating it on first use.
func (m *Manager) lineFor(specializationID int64) *line {
	m.mu.RLock()
	l, ok := m.lines[specializationID]
	m.mu.RUnlock()
	if ok {
		return l
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok = m.lines[specializationID]; ok {
		return l
	}
	l = newLine()
	m.lines[specializationID] = l
	return l
}

// lineForEntry resolves the owning line through the entry index.
func (m *Manager) lineForEntry(entryID string) (*line, error) {
	m.mu.RLock()
	specID, ok := m.index[entryID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return m.lineFor(specID), nil
}

func (m *Manager) forget(entryID string) {
	m.mu.Lock()
	delete(m.index, entryID)
	m.mu.Unlock()
}
