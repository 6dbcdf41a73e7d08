package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hospital-queue/internal/queue"
)

// SpecializationProvider resolves capacity and active flag from the
// specializations table.
type SpecializationProvider struct {
	DB *sql.DB
}

func (p *SpecializationProvider) CapacityAndStatus(ctx context.Context, specializationID int64) (queue.SpecializationInfo, error) {
	var capacity int
	var isActive string
	err := p.DB.QueryRowContext(ctx,
		"SELECT max_capacity, is_active FROM specializations WHERE specialization_id = ?",
		specializationID,
	).Scan(&capacity, &isActive)

	if err == sql.ErrNoRows {
		return queue.SpecializationInfo{}, fmt.Errorf("%w: specialization %d not found", queue.ErrValidation, specializationID)
	}
	if err != nil {
		return queue.SpecializationInfo{}, fmt.Errorf("%w: specialization lookup: %v", queue.ErrPersistence, err)
	}
	return queue.SpecializationInfo{Capacity: capacity, Active: isActive == "y"}, nil
}

// PatientProvider answers patient existence checks against the
// patients table. Inactive (archived) patients do not count.
type PatientProvider struct {
	DB *sql.DB
}

func (p *PatientProvider) Exists(ctx context.Context, patientID int64) (bool, error) {
	var one int
	err := p.DB.QueryRowContext(ctx,
		"SELECT 1 FROM patients WHERE patient_id = ? AND status = 'active'",
		patientID,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// QueueStore is the durability sink for queue entries.
type QueueStore struct {
	DB *sql.DB
}

// Save inserts a freshly enqueued entry.
func (s *QueueStore) Save(ctx context.Context, e queue.Entry) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO queue_entries
		(queue_entry_id, patient_id, specialization_id, ticket_code, priority, state, joined_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, e.ID, e.PatientID, e.SpecializationID, e.TicketCode, int(e.Priority), string(e.State), e.JoinedAt)
	return err
}

// UpdateState writes a state transition or priority change.
func (s *QueueStore) UpdateState(ctx context.Context, e queue.Entry) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE queue_entries
		SET priority = ?, state = ?, served_at = ?, removed_at = ?, removal_reason = ?, updated_at = NOW()
		WHERE queue_entry_id = ?
	`, int(e.Priority), string(e.State), e.ServedAt, e.RemovedAt, nullString(e.RemovalReason), e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("entry %s not in store", e.ID)
	}
	return err
}

// LoadActiveEntries returns every waiting entry, oldest first. Called
// once at startup to rebuild the in-memory lines.
func (s *QueueStore) LoadActiveEntries(ctx context.Context) ([]queue.Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT queue_entry_id, patient_id, specialization_id, ticket_code, priority, joined_at
		FROM queue_entries
		WHERE state = 'waiting'
		ORDER BY joined_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []queue.Entry
	for rows.Next() {
		var e queue.Entry
		var priority int
		var ticketCode sql.NullString
		var joinedAt time.Time
		if err := rows.Scan(&e.ID, &e.PatientID, &e.SpecializationID, &ticketCode, &priority, &joinedAt); err != nil {
			return nil, err
		}
		e.TicketCode = ticketCode.String
		e.Priority = queue.Priority(priority)
		e.State = queue.StateWaiting
		e.JoinedAt = joinedAt
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
