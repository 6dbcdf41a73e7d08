package handler

import (
	"hospital-queue/internal/helper"

	"github.com/gofiber/fiber/v2"
)

type displayQueue struct {
	SpecializationID int64  `json:"specialization_id"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	WaitingCount     int    `json:"waiting_count"`
	NextTicket       string `json:"next_ticket,omitempty"`
	NextPriority     string `json:"next_priority,omitempty"`
	EstimatedWait    string `json:"estimated_wait"`
	ServedToday      int64  `json:"served_today"`
}

// GetDisplayQueues feeds the waiting-room screens. Unauthenticated;
// exposes ticket codes and counts, never patient identifiers.
func (h *Handler) GetDisplayQueues(c *fiber.Ctx) error {
	rows, err := h.db.Query(`
		SELECT specialization_id, name, code
		FROM specializations
		WHERE is_active = 'y'
		ORDER BY name ASC
	`)
	if err != nil {
		h.log.Error().Err(err).Msg("display specializations query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch display data",
		})
	}
	defer rows.Close()

	queues := []displayQueue{}
	for rows.Next() {
		var q displayQueue
		if err := rows.Scan(&q.SpecializationID, &q.Name, &q.Code); err != nil {
			continue
		}

		positions := h.manager.GetQueue(q.SpecializationID)
		q.WaitingCount = len(positions)
		if len(positions) > 0 {
			q.NextTicket = positions[0].Entry.TicketCode
			q.NextPriority = positions[0].Entry.Priority.String()
			q.EstimatedWait = helper.FormatWait(positions[len(positions)-1].EstimatedWait)
		} else {
			q.EstimatedWait = helper.FormatWait(0)
		}

		if err := h.db.QueryRow(`
			SELECT COUNT(*) FROM queue_entries
			WHERE specialization_id = ? AND state = 'served' AND DATE(served_at) = CURDATE()
		`, q.SpecializationID).Scan(&q.ServedToday); err != nil {
			h.log.Warn().Err(err).Int64("specialization_id", q.SpecializationID).Msg("served today count failed")
		}

		queues = append(queues, q)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    queues,
	})
}
