package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type dailyCount struct {
	Date    string `json:"date"`
	Total   int64  `json:"total"`
	Served  int64  `json:"served"`
	Removed int64  `json:"removed"`
}

type specializationCount struct {
	SpecializationID int64  `json:"specialization_id"`
	Name             string `json:"name"`
	Total            int64  `json:"total"`
}

// GetVisitorReport aggregates queue history over a date range. Defaults
// to the last 30 days when no range is given.
func (h *Handler) GetVisitorReport(c *fiber.Ctx) error {
	endDate := c.Query("end_date", time.Now().Format("2006-01-02"))
	startDate := c.Query("start_date", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "start_date must be YYYY-MM-DD",
		})
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "end_date must be YYYY-MM-DD",
		})
	}
	if end.Before(start) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "end_date must not be before start_date",
		})
	}

	var total, served, removed int64
	err = h.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(state = 'served'), 0),
		       COALESCE(SUM(state = 'removed'), 0)
		FROM queue_entries
		WHERE DATE(joined_at) BETWEEN ? AND ?
	`, startDate, endDate).Scan(&total, &served, &removed)
	if err != nil {
		h.log.Error().Err(err).Msg("visitor summary query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to build report",
		})
	}

	daily := []dailyCount{}
	rows, err := h.db.Query(`
		SELECT DATE(joined_at) AS day,
		       COUNT(*),
		       COALESCE(SUM(state = 'served'), 0),
		       COALESCE(SUM(state = 'removed'), 0)
		FROM queue_entries
		WHERE DATE(joined_at) BETWEEN ? AND ?
		GROUP BY day ORDER BY day ASC
	`, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("visitor daily query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to build report",
		})
	}
	defer rows.Close()
	for rows.Next() {
		var d dailyCount
		var day time.Time
		if err := rows.Scan(&day, &d.Total, &d.Served, &d.Removed); err != nil {
			continue
		}
		d.Date = day.Format("2006-01-02")
		daily = append(daily, d)
	}

	bySpec := []specializationCount{}
	specRows, err := h.db.Query(`
		SELECT q.specialization_id, s.name, COUNT(*)
		FROM queue_entries q
		JOIN specializations s ON s.specialization_id = q.specialization_id
		WHERE DATE(q.joined_at) BETWEEN ? AND ?
		GROUP BY q.specialization_id, s.name
		ORDER BY COUNT(*) DESC
	`, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("visitor specialization query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to build report",
		})
	}
	defer specRows.Close()
	for specRows.Next() {
		var s specializationCount
		if err := specRows.Scan(&s.SpecializationID, &s.Name, &s.Total); err != nil {
			continue
		}
		bySpec = append(bySpec, s)
	}

	var normal, urgent, superUrgent int64
	err = h.db.QueryRow(`
		SELECT COALESCE(SUM(priority = 0), 0),
		       COALESCE(SUM(priority = 1), 0),
		       COALESCE(SUM(priority = 2), 0)
		FROM queue_entries
		WHERE DATE(joined_at) BETWEEN ? AND ?
	`, startDate, endDate).Scan(&normal, &urgent, &superUrgent)
	if err != nil {
		h.log.Error().Err(err).Msg("visitor priority query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to build report",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"start_date": startDate,
			"end_date":   endDate,
			"summary": fiber.Map{
				"total_entries": total,
				"served":        served,
				"removed":       removed,
			},
			"daily":             daily,
			"by_specialization": bySpec,
			"by_priority": fiber.Map{
				"normal":       normal,
				"urgent":       urgent,
				"super_urgent": superUrgent,
			},
		},
	})
}
