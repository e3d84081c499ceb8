package users

import (
	authsvc "onda-backend/internal/application/auth"
	usersvc "onda-backend/internal/application/users"
	"onda-backend/internal/domain"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *usersvc.Service
}

// POST /api/v1/users/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body usersvc.RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.Register(c.Context(), body)
	if err != nil {
		return mapRegisterError(c, err)
	}
	return response.SuccessCreated(c, "User registered", fiber.Map{
		"user_id":        user.UserID,
		"fullname":       user.Fullname,
		"email":          user.Email,
		"role":           user.Role,
		"wallet_address": user.WalletAddress,
	}, nil)
}

// PATCH /api/v1/users/:user_id/role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.Role == "" {
		return response.Error(c, "role is required", fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.UpdateRole(c.Context(), c.Params("user_id"), body.Role)
	if err != nil {
		return mapRoleError(c, err)
	}
	return response.Success(c, "User role updated", fiber.Map{
		"user_id": user.UserID,
		"role":    user.Role,
	}, nil)
}

func mapRegisterError(c *fiber.Ctx, err error) error {
	msg := err.Error()
	status := 500
	switch {
	case msg == "Invalid email format", msg == "Invalid password format",
		msg == "Full name is required and must be a non-empty string",
		msg == "Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)",
		msg == "Invalid wallet address":
		status = 400
	case msg == "Email already registered", msg == "Wallet already registered":
		status = 409
	}
	return response.Error(c, msg, status, nil)
}

func mapRoleError(c *fiber.Ctx, err error) error {
	if err == domain.ErrNotFound {
		return response.Error(c, "User not found", fiber.StatusNotFound, nil)
	}
	if err.Error() == "Invalid role" {
		return response.Error(c, "Invalid role", fiber.StatusBadRequest, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

// GET /api/v1/users/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	wallet, err := authsvc.WalletOf(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	user, err := h.Service.ByWallet(c.Context(), wallet)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "User fetched", fiber.Map{
		"user_id":        user.UserID,
		"fullname":       user.Fullname,
		"email":          user.Email,
		"role":           user.Role,
		"wallet_address": user.WalletAddress,
	}, nil)
}
