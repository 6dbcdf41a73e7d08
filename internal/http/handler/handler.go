package handler

import (
	"context"
	"database/sql"
	"errors"

	"hospital-queue/internal/queue"
	"hospital-queue/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CodeAllocator hands out sequential daily ticket numbers per
// specialization.
type CodeAllocator interface {
	Next(ctx context.Context, specializationID int64) (int64, error)
}

// Handler carries the dependencies every endpoint needs. Constructed
// once in main and registered on the fiber app.
type Handler struct {
	db      *sql.DB
	manager *queue.Manager
	codes   CodeAllocator
	hub     *realtime.Hub
	log     zerolog.Logger
}

func New(db *sql.DB, manager *queue.Manager, codes CodeAllocator, hub *realtime.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		db:      db,
		manager: manager,
		codes:   codes,
		hub:     hub,
		log:     log.With().Str("component", "http").Logger(),
	}
}

// queueError maps the queue error taxonomy onto HTTP statuses. The
// expected, actionable conditions get plain messages the front end can
// show as-is.
func (h *Handler) queueError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, queue.ErrValidation),
		errors.Is(err, queue.ErrInactiveSpecialization):
		status = fiber.StatusBadRequest
	case errors.Is(err, queue.ErrCapacityExceeded):
		status = fiber.StatusConflict
	case errors.Is(err, queue.ErrEmptyQueue),
		errors.Is(err, queue.ErrEntryNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, queue.ErrPersistence):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// broadcastQueueUpdate nudges the display screens to refresh. Never
// blocks a request on a slow hub.
func (h *Handler) broadcastQueueUpdate() {
	if h.hub == nil {
		return
	}
	select {
	case h.hub.Broadcast <- []byte(`{"event":"queue_update"}`):
	default:
	}
}
