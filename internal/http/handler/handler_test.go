package handler

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"hospital-queue/internal/queue"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueErrorStatusMapping(t *testing.T) {
	h := New(nil, nil, nil, nil, zerolog.Nop())

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad priority", queue.ErrValidation), fiber.StatusBadRequest},
		{fmt.Errorf("%w: specialization 3", queue.ErrInactiveSpecialization), fiber.StatusBadRequest},
		{fmt.Errorf("%w: 10 of 10 slots taken", queue.ErrCapacityExceeded), fiber.StatusConflict},
		{queue.ErrEmptyQueue, fiber.StatusNotFound},
		{fmt.Errorf("%w: abc", queue.ErrEntryNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: save entry", queue.ErrPersistence), fiber.StatusServiceUnavailable},
		{fmt.Errorf("something else broke"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New()
		err := tc.err
		app.Get("/boom", func(c *fiber.Ctx) error {
			return h.queueError(c, err)
		})

		resp, appErr := app.Test(httptest.NewRequest("GET", "/boom", nil))
		require.NoError(t, appErr)
		assert.Equal(t, tc.status, resp.StatusCode, "error: %v", tc.err)
	}
}

func TestBroadcastQueueUpdateNilHub(t *testing.T) {
	h := New(nil, nil, nil, nil, zerolog.Nop())
	// Must not panic or block without a hub attached.
	h.broadcastQueueUpdate()
}
