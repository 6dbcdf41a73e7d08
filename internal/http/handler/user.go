package handler

import (
	"database/sql"
	"strconv"

	"hospital-queue/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	rows, err := h.db.Query(`
		SELECT id, name, email, role, is_banned, created_at, updated_at
		FROM users ORDER BY name ASC
	`)
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch users",
		})
	}
	defer rows.Close()

	users := []models.UserResponse{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt); err != nil {
			continue
		}
		users = append(users, models.ToUserResponse(u))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "name, email and password are required",
		})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "password must be at least 8 characters",
		})
	}
	if req.Role != models.RoleSuperUser && req.Role != models.RoleFrontDesk {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "role must be super_user or front_desk",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to hash password",
		})
	}

	res, err := h.db.Exec(`
		INSERT INTO users (name, email, password, role, is_banned, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'n', NOW(), NOW())
	`, req.Name, req.Email, string(hashed), req.Role)
	if err != nil {
		h.log.Error().Err(err).Msg("create user failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create user, email may already be in use",
		})
	}

	id, _ := res.LastInsertId()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User created",
		"data":    fiber.Map{"id": id},
	})
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var u models.User
	err := h.db.QueryRow(`
		SELECT name, email, password, role, is_banned FROM users WHERE id = ?
	`, id).Scan(&u.Name, &u.Email, &u.Password, &u.Role, &u.IsBanned)
	if err == sql.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch user",
		})
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "password must be at least 8 characters",
			})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to hash password",
			})
		}
		u.Password = string(hashed)
	}
	if req.Role != "" {
		if req.Role != models.RoleSuperUser && req.Role != models.RoleFrontDesk {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "role must be super_user or front_desk",
			})
		}
		u.Role = req.Role
	}
	if req.IsBanned != "" {
		u.IsBanned = req.IsBanned
	}

	_, err = h.db.Exec(`
		UPDATE users
		SET name = ?, email = ?, password = ?, role = ?, is_banned = ?, updated_at = NOW()
		WHERE id = ?
	`, u.Name, u.Email, u.Password, u.Role, u.IsBanned, id)
	if err != nil {
		h.log.Error().Err(err).Msg("update user failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update user",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User updated",
	})
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid user id",
		})
	}

	// No self-delete.
	if uid, ok := c.Locals("user_id").(int64); ok && uid == id {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "You cannot delete your own account",
		})
	}

	res, err := h.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete user",
		})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted",
	})
}
