package wallets

import (
	authsvc "onda-backend/internal/application/auth"
	walletsvc "onda-backend/internal/application/wallets"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *walletsvc.Service
}

// GET /api/v1/wallets/balance
func (h *Handlers) Balance(c *fiber.Ctx) error {
	wallet, err := authsvc.WalletOf(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	balance, err := h.Service.Balance(c.Context(), wallet)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Balance fetched", fiber.Map{
		"address": wallet,
		"balance": balance,
	}, nil)
}

// POST /api/v1/wallets/transfer
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	wallet, err := authsvc.WalletOf(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		To     string `json:"to"`
		Amount int64  `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil || body.To == "" {
		return response.Error(c, "to and amount are required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Transfer(c.Context(), wallet, body.To, body.Amount); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Transfer complete", nil, nil)
}
