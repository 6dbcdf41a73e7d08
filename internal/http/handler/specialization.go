package handler

import (
	"database/sql"
	"strconv"

	"hospital-queue/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetAllSpecializations(c *fiber.Ctx) error {
	rows, err := h.db.Query(`
		SELECT specialization_id, name, code, description, max_capacity, is_active, created_at, updated_at
		FROM specializations
		ORDER BY name ASC
	`)
	if err != nil {
		h.log.Error().Err(err).Msg("list specializations failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch specializations",
		})
	}
	defer rows.Close()

	specs := []models.SpecializationResponse{}
	for rows.Next() {
		var s models.Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Description, &s.MaxCapacity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			continue
		}
		specs = append(specs, models.ToSpecializationResponse(s))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    specs,
	})
}

func (h *Handler) GetSpecializationByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var s models.Specialization
	err := h.db.QueryRow(`
		SELECT specialization_id, name, code, description, max_capacity, is_active, created_at, updated_at
		FROM specializations WHERE specialization_id = ?
	`, id).Scan(&s.ID, &s.Name, &s.Code, &s.Description, &s.MaxCapacity, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Specialization not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch specialization",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.ToSpecializationResponse(s),
	})
}

func (h *Handler) CreateSpecialization(c *fiber.Ctx) error {
	var req models.CreateSpecializationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "name and code are required",
		})
	}
	if req.MaxCapacity < 1 || req.MaxCapacity > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "max_capacity must be between 1 and 1000",
		})
	}
	if req.IsActive == "" {
		req.IsActive = "y"
	}

	res, err := h.db.Exec(`
		INSERT INTO specializations (name, code, description, max_capacity, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
	`, req.Name, req.Code, req.Description, req.MaxCapacity, req.IsActive)
	if err != nil {
		h.log.Error().Err(err).Msg("create specialization failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create specialization",
		})
	}

	id, _ := res.LastInsertId()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Specialization created",
		"data":    fiber.Map{"id": id},
	})
}

// UpdateSpecialization edits the registry row. Shrinking capacity or
// deactivating never evicts patients already waiting; both act only as
// an admission gate for future enqueues.
func (h *Handler) UpdateSpecialization(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid specialization id",
		})
	}

	var req models.UpdateSpecializationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.MaxCapacity != nil && (*req.MaxCapacity < 1 || *req.MaxCapacity > 1000) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "max_capacity must be between 1 and 1000",
		})
	}

	var s models.Specialization
	err = h.db.QueryRow(`
		SELECT name, code, description, max_capacity, is_active
		FROM specializations WHERE specialization_id = ?
	`, id).Scan(&s.Name, &s.Code, &s.Description, &s.MaxCapacity, &s.IsActive)
	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Specialization not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch specialization",
		})
	}

	if req.Name != "" {
		s.Name = req.Name
	}
	if req.Code != "" {
		s.Code = req.Code
	}
	if req.Description != "" {
		s.Description.String = req.Description
		s.Description.Valid = true
	}
	if req.MaxCapacity != nil {
		s.MaxCapacity = *req.MaxCapacity
	}
	if req.IsActive != "" {
		s.IsActive = req.IsActive
	}

	_, err = h.db.Exec(`
		UPDATE specializations
		SET name = ?, code = ?, description = ?, max_capacity = ?, is_active = ?, updated_at = NOW()
		WHERE specialization_id = ?
	`, s.Name, s.Code, s.Description, s.MaxCapacity, s.IsActive, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update specialization failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update specialization",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Specialization updated",
	})
}

// DeleteSpecialization deactivates rather than deletes; queue entries
// keep their foreign key for reporting.
func (h *Handler) DeleteSpecialization(c *fiber.Ctx) error {
	id := c.Params("id")

	res, err := h.db.Exec(`
		UPDATE specializations SET is_active = 'n', updated_at = NOW()
		WHERE specialization_id = ?
	`, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to deactivate specialization",
		})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Specialization not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Specialization deactivated",
	})
}
