package handler

import (
	"database/sql"
	"fmt"
	"strconv"

	"hospital-queue/internal/models"
	"hospital-queue/internal/queue"

	"github.com/gofiber/fiber/v2"
)

// AddToQueue places a patient into a specialization's line. The ticket
// code comes from the daily Redis counter; losing it is cosmetic, so a
// counter failure only logs.
func (h *Handler) AddToQueue(c *fiber.Ctx) error {
	var req models.AddToQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.PatientID == 0 || req.SpecializationID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "patient_id and specialization_id are required",
		})
	}

	priority, err := queue.ParsePriority(req.Priority)
	if err != nil {
		return h.queueError(c, err)
	}

	ticketCode := h.allocateTicketCode(c, req.SpecializationID)

	entry, err := h.manager.AddToQueue(c.Context(), req.PatientID, req.SpecializationID, priority, ticketCode)
	if err != nil {
		return h.queueError(c, err)
	}

	h.broadcastQueueUpdate()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Patient added to queue",
		"data":    models.ToQueueEntryResponse(entry),
	})
}

// ServeNext calls in the highest-priority waiting patient.
func (h *Handler) ServeNext(c *fiber.Ctx) error {
	specID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid specialization id",
		})
	}

	entry, err := h.manager.ServeNext(c.Context(), specID)
	if err != nil {
		return h.queueError(c, err)
	}

	h.broadcastQueueUpdate()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Next patient called",
		"data":    models.ToQueueEntryResponse(entry),
	})
}

// ServeSpecific serves one entry out of strict order.
func (h *Handler) ServeSpecific(c *fiber.Ctx) error {
	entry, err := h.manager.ServeSpecific(c.Context(), c.Params("entryId"))
	if err != nil {
		return h.queueError(c, err)
	}

	h.broadcastQueueUpdate()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Patient served",
		"data":    models.ToQueueEntryResponse(entry),
	})
}

// RemoveFromQueue takes a waiting entry out with a recorded reason.
func (h *Handler) RemoveFromQueue(c *fiber.Ctx) error {
	var req models.RemoveFromQueueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "reason is required",
		})
	}

	entry, err := h.manager.RemoveFromQueue(c.Context(), c.Params("entryId"), req.Reason)
	if err != nil {
		return h.queueError(c, err)
	}

	h.broadcastQueueUpdate()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Patient removed from queue",
		"data":    models.ToQueueEntryResponse(entry),
	})
}

// Reprioritize changes a waiting entry's urgency.
func (h *Handler) Reprioritize(c *fiber.Ctx) error {
	var req models.ReprioritizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	priority, err := queue.ParsePriority(req.Priority)
	if err != nil {
		return h.queueError(c, err)
	}

	entry, err := h.manager.Reprioritize(c.Context(), c.Params("entryId"), priority)
	if err != nil {
		return h.queueError(c, err)
	}

	h.broadcastQueueUpdate()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Priority updated",
		"data":    models.ToQueueEntryResponse(entry),
	})
}

// GetQueue returns the wait-annotated snapshot of one line.
func (h *Handler) GetQueue(c *fiber.Ctx) error {
	specID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid specialization id",
		})
	}

	positions := h.manager.GetQueue(specID)
	entries := make([]models.QueueEntryResponse, len(positions))
	for i, p := range positions {
		entries[i] = models.ToQueuePositionResponse(p)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"specialization_id": specID,
			"length":            len(entries),
			"entries":           entries,
		},
	})
}

// GetQueueStatistics returns the aggregate metrics for one line.
func (h *Handler) GetQueueStatistics(c *fiber.Ctx) error {
	specID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid specialization id",
		})
	}

	stats, err := h.manager.GetStatistics(c.Context(), specID)
	if err != nil {
		return h.queueError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.ToQueueStatsResponse(stats),
	})
}

// allocateTicketCode builds the printed code (e.g. CAR-007) from the
// specialization's short code and the daily counter. Any failure here
// degrades to an uncoded entry.
func (h *Handler) allocateTicketCode(c *fiber.Ctx, specializationID int64) string {
	var specCode string
	err := h.db.QueryRow(
		"SELECT code FROM specializations WHERE specialization_id = ?",
		specializationID,
	).Scan(&specCode)
	if err != nil {
		if err != sql.ErrNoRows {
			h.log.Warn().Err(err).Int64("specialization_id", specializationID).Msg("ticket code lookup failed")
		}
		return ""
	}

	n, err := h.codes.Next(c.Context(), specializationID)
	if err != nil {
		h.log.Warn().Err(err).Int64("specialization_id", specializationID).Msg("ticket counter failed")
		return ""
	}
	return fmt.Sprintf("%s-%03d", specCode, n)
}
