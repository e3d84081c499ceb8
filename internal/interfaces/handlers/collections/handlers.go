package collections

import (
	authsvc "onda-backend/internal/application/auth"
	collectionsvc "onda-backend/internal/application/collections"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *collectionsvc.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/collections
func (h *Handlers) Init(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint   string               `json:"mint"`
		Config collectionsvc.Config `json:"config"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" {
		return response.Error(c, "mint and config are required", fiber.StatusBadRequest, nil)
	}
	policy, err := h.Service.Init(c.Context(), wallet, body.Mint, body.Config)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Collection policy created", policy, nil)
}

// PATCH /api/v1/collections/:mint
func (h *Handlers) Update(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Config collectionsvc.Config `json:"config"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "config is required", fiber.StatusBadRequest, nil)
	}
	policy, err := h.Service.Update(c.Context(), wallet, c.Params("mint"), body.Config)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Collection policy updated", policy, nil)
}

// DELETE /api/v1/collections/:mint
func (h *Handlers) Close(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := h.Service.Close(c.Context(), wallet, c.Params("mint")); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Collection policy closed", nil, nil)
}

// GET /api/v1/collections/:mint
func (h *Handlers) Get(c *fiber.Ctx) error {
	policy, err := h.Service.Get(c.Context(), c.Params("mint"))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Collection policy fetched", policy, nil)
}

// GET /api/v1/collections
func (h *Handlers) List(c *fiber.Ctx) error {
	policies, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Collection policies fetched", policies, nil)
}
