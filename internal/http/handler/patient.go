package handler

import (
	"database/sql"
	"time"

	"hospital-queue/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllPatients lists the patient registry with offset pagination and
// an optional name search.
func (h *Handler) GetAllPatients(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	search := c.Query("search")

	where := ""
	args := []interface{}{}
	if search != "" {
		where = " WHERE full_name LIKE ?"
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := h.db.QueryRow("SELECT COUNT(*) FROM patients"+where, args...).Scan(&total); err != nil {
		h.log.Error().Err(err).Msg("count patients failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch patients",
		})
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := h.db.Query(`
		SELECT patient_id, full_name, date_of_birth, gender, phone_number,
		       email, address, blood_type, allergies, status, registration_date
		FROM patients`+where+`
		ORDER BY full_name ASC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		h.log.Error().Err(err).Msg("list patients failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch patients",
		})
	}
	defer rows.Close()

	patients := []models.PatientResponse{}
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(
			&p.ID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.PhoneNumber,
			&p.Email, &p.Address, &p.BloodType, &p.Allergies, &p.Status, &p.RegistrationDate,
		); err != nil {
			continue
		}
		patients = append(patients, models.ToPatientResponse(p))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    patients,
		"meta": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *Handler) GetPatientByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var p models.Patient
	err := h.db.QueryRow(`
		SELECT patient_id, full_name, date_of_birth, gender, phone_number,
		       email, address, blood_type, allergies, status, registration_date
		FROM patients WHERE patient_id = ?
	`, id).Scan(
		&p.ID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.PhoneNumber,
		&p.Email, &p.Address, &p.BloodType, &p.Allergies, &p.Status, &p.RegistrationDate,
	)

	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Patient not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch patient",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.ToPatientResponse(p),
	})
}

func (h *Handler) CreatePatient(c *fiber.Ctx) error {
	var req models.CreatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.FullName == "" || req.DateOfBirth == "" || req.Gender == "" || req.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "full_name, date_of_birth, gender and phone_number are required",
		})
	}
	if req.Gender != "male" && req.Gender != "female" && req.Gender != "other" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "gender must be male, female or other",
		})
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "date_of_birth must be YYYY-MM-DD",
		})
	}

	res, err := h.db.Exec(`
		INSERT INTO patients
			(full_name, date_of_birth, gender, phone_number, email, address,
			 blood_type, allergies, status, registration_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active', CURDATE(), NOW(), NOW())
	`, req.FullName, dob, req.Gender, req.PhoneNumber,
		nullString(req.Email), nullString(req.Address),
		nullString(req.BloodType), nullString(req.Allergies))
	if err != nil {
		h.log.Error().Err(err).Msg("create patient failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to register patient",
		})
	}

	id, _ := res.LastInsertId()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Patient registered",
		"data":    fiber.Map{"id": id},
	})
}

func (h *Handler) UpdatePatient(c *fiber.Ctx) error {
	id := c.Params("id")

	var req models.UpdatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.Status != "" && req.Status != "active" && req.Status != "archived" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "status must be active or archived",
		})
	}

	var p models.Patient
	err := h.db.QueryRow(`
		SELECT full_name, phone_number, email, address, blood_type, allergies, status
		FROM patients WHERE patient_id = ?
	`, id).Scan(&p.FullName, &p.PhoneNumber, &p.Email, &p.Address, &p.BloodType, &p.Allergies, &p.Status)
	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Patient not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch patient",
		})
	}

	if req.FullName != "" {
		p.FullName = req.FullName
	}
	if req.PhoneNumber != "" {
		p.PhoneNumber = req.PhoneNumber
	}
	if req.Email != "" {
		p.Email = nullString(req.Email)
	}
	if req.Address != "" {
		p.Address = nullString(req.Address)
	}
	if req.BloodType != "" {
		p.BloodType = nullString(req.BloodType)
	}
	if req.Allergies != "" {
		p.Allergies = nullString(req.Allergies)
	}
	if req.Status != "" {
		p.Status = req.Status
	}

	_, err = h.db.Exec(`
		UPDATE patients
		SET full_name = ?, phone_number = ?, email = ?, address = ?,
		    blood_type = ?, allergies = ?, status = ?, updated_at = NOW()
		WHERE patient_id = ?
	`, p.FullName, p.PhoneNumber, p.Email, p.Address, p.BloodType, p.Allergies, p.Status, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update patient failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update patient",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Patient updated",
	})
}

// ArchivePatient soft-deletes. Archived patients stay in history and
// reports but fail the active-patient check on enqueue.
func (h *Handler) ArchivePatient(c *fiber.Ctx) error {
	id := c.Params("id")

	res, err := h.db.Exec(`
		UPDATE patients SET status = 'archived', updated_at = NOW()
		WHERE patient_id = ?
	`, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to archive patient",
		})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Patient not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Patient archived",
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
