package models

import (
	"time"

	"hospital-queue/internal/helper"
	"hospital-queue/internal/queue"
)

type AddToQueueRequest struct {
	PatientID        int64  `json:"patient_id" validate:"required"`
	SpecializationID int64  `json:"specialization_id" validate:"required"`
	Priority         string `json:"priority" validate:"required,oneof=normal urgent super_urgent"`
}

type RemoveFromQueueRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type ReprioritizeRequest struct {
	Priority string `json:"priority" validate:"required,oneof=normal urgent super_urgent"`
}

// QueueEntryResponse is the API shape of a queue entry, with the
// position and wait estimate attached when it came from a snapshot.
type QueueEntryResponse struct {
	ID                string `json:"id"`
	PatientID         int64  `json:"patient_id"`
	SpecializationID  int64  `json:"specialization_id"`
	TicketCode        string `json:"ticket_code,omitempty"`
	Priority          string `json:"priority"`
	State             string `json:"state"`
	JoinedAt          string `json:"joined_at"`
	ServedAt          string `json:"served_at,omitempty"`
	RemovedAt         string `json:"removed_at,omitempty"`
	RemovalReason     string `json:"removal_reason,omitempty"`
	Position          int    `json:"position,omitempty"`
	EstimatedWaitMins int    `json:"estimated_wait_minutes,omitempty"`
	EstimatedWait     string `json:"estimated_wait,omitempty"`
}

func ToQueueEntryResponse(e queue.Entry) QueueEntryResponse {
	resp := QueueEntryResponse{
		ID:               e.ID,
		PatientID:        e.PatientID,
		SpecializationID: e.SpecializationID,
		TicketCode:       e.TicketCode,
		Priority:         e.Priority.String(),
		State:            string(e.State),
		JoinedAt:         e.JoinedAt.Format(time.RFC3339),
		RemovalReason:    e.RemovalReason,
	}
	if e.ServedAt != nil {
		resp.ServedAt = e.ServedAt.Format(time.RFC3339)
	}
	if e.RemovedAt != nil {
		resp.RemovedAt = e.RemovedAt.Format(time.RFC3339)
	}
	return resp
}

func ToQueuePositionResponse(p queue.Position) QueueEntryResponse {
	resp := ToQueueEntryResponse(p.Entry)
	resp.Position = p.Position
	resp.EstimatedWaitMins = int(p.EstimatedWait.Minutes())
	resp.EstimatedWait = helper.FormatWait(p.EstimatedWait)
	return resp
}

// QueueStatsResponse mirrors queue.Stats for the API.
type QueueStatsResponse struct {
	CurrentLength       int            `json:"current_length"`
	Capacity            int            `json:"capacity"`
	CapacityUtilization float64        `json:"capacity_utilization"`
	AverageWaitMins     int            `json:"average_wait_minutes"`
	AverageWait         string         `json:"average_wait"`
	LongestWaitMins     int            `json:"longest_wait_minutes"`
	LongestWait         string         `json:"longest_wait"`
	CountByPriority     map[string]int `json:"count_by_priority"`
}

func ToQueueStatsResponse(s queue.Stats) QueueStatsResponse {
	counts := make(map[string]int, len(s.CountByPriority))
	for p, n := range s.CountByPriority {
		counts[p.String()] = n
	}
	return QueueStatsResponse{
		CurrentLength:       s.CurrentLength,
		Capacity:            s.Capacity,
		CapacityUtilization: s.CapacityUtilization,
		AverageWaitMins:     int(s.AverageWait.Minutes()),
		AverageWait:         helper.FormatWait(s.AverageWait),
		LongestWaitMins:     int(s.LongestWait.Minutes()),
		LongestWait:         helper.FormatWait(s.LongestWait),
		CountByPriority:     counts,
	}
}
