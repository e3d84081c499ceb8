package rentals

import (
	authsvc "onda-backend/internal/application/auth"
	rentalsvc "onda-backend/internal/application/rentals"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *rentalsvc.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/rentals/list
func (h *Handlers) List(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint            string  `json:"mint"`
		AmountPerDay    int64   `json:"amount_per_day"`
		Expiry          int64   `json:"expiry"`
		PrivateBorrower *string `json:"private_borrower"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" {
		return response.Error(c, "mint, amount_per_day and expiry are required", fiber.StatusBadRequest, nil)
	}
	rental, err := h.Service.List(c.Context(), wallet, body.Mint, body.AmountPerDay, body.Expiry, body.PrivateBorrower)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Rental listed", rental, nil)
}

// POST /api/v1/rentals/:rental_id/take
func (h *Handlers) Take(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	rentalID, err := uuid.Parse(c.Params("rental_id"))
	if err != nil {
		return response.Error(c, "rental_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Days int64 `json:"days"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "days is required", fiber.StatusBadRequest, nil)
	}
	rental, err := h.Service.Take(c.Context(), wallet, rentalID, body.Days)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Rental taken", rental, nil)
}

// POST /api/v1/rentals/:rental_id/extend
func (h *Handlers) Extend(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	rentalID, err := uuid.Parse(c.Params("rental_id"))
	if err != nil {
		return response.Error(c, "rental_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Days int64 `json:"days"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "days is required", fiber.StatusBadRequest, nil)
	}
	rental, err := h.Service.Extend(c.Context(), wallet, rentalID, body.Days)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Rental extended", rental, nil)
}

// POST /api/v1/rentals/:rental_id/recover
func (h *Handlers) Recover(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	rentalID, err := uuid.Parse(c.Params("rental_id"))
	if err != nil {
		return response.Error(c, "rental_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	rental, err := h.Service.Recover(c.Context(), wallet, rentalID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Rental recovered", rental, nil)
}

// POST /api/v1/rentals/:rental_id/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	rentalID, err := uuid.Parse(c.Params("rental_id"))
	if err != nil {
		return response.Error(c, "rental_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	earned, err := h.Service.Withdraw(c.Context(), wallet, rentalID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Earned rent withdrawn", fiber.Map{"amount": earned}, nil)
}

// DELETE /api/v1/rentals/:rental_id
func (h *Handlers) Close(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	rentalID, err := uuid.Parse(c.Params("rental_id"))
	if err != nil {
		return response.Error(c, "rental_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Close(c.Context(), wallet, rentalID); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Rental closed", nil, nil)
}

// GET /api/v1/rentals/mint/:mint
func (h *Handlers) ByMint(c *fiber.Ctx) error {
	rentals, err := h.Service.ByMint(c.Context(), c.Params("mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Rentals fetched", rentals, nil)
}
