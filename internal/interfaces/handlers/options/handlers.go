package options

import (
	authsvc "onda-backend/internal/application/auth"
	optionsvc "onda-backend/internal/application/options"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *optionsvc.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/options/ask
func (h *Handlers) Ask(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint        string `json:"mint"`
		Premium     int64  `json:"premium"`
		StrikePrice int64  `json:"strike_price"`
		Expiry      int64  `json:"expiry"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" {
		return response.Error(c, "mint, premium, strike_price and expiry are required", fiber.StatusBadRequest, nil)
	}
	option, err := h.Service.Ask(c.Context(), wallet, body.Mint, body.Premium, body.StrikePrice, body.Expiry)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Call option listed", option, nil)
}

// POST /api/v1/options/:option_id/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	optionID, err := uuid.Parse(c.Params("option_id"))
	if err != nil {
		return response.Error(c, "option_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	option, err := h.Service.Buy(c.Context(), wallet, optionID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Call option bought", option, nil)
}

// POST /api/v1/options/:option_id/exercise
func (h *Handlers) Exercise(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	optionID, err := uuid.Parse(c.Params("option_id"))
	if err != nil {
		return response.Error(c, "option_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Exercise(c.Context(), wallet, optionID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Call option exercised", result, nil)
}

// DELETE /api/v1/options/:option_id
func (h *Handlers) Close(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	optionID, err := uuid.Parse(c.Params("option_id"))
	if err != nil {
		return response.Error(c, "option_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Close(c.Context(), wallet, optionID); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Call option closed", nil, nil)
}

// GET /api/v1/options/mint/:mint
func (h *Handlers) ByMint(c *fiber.Ctx) error {
	options, err := h.Service.ByMint(c.Context(), c.Params("mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Call options fetched", options, nil)
}
