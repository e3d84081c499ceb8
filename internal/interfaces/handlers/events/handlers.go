package events

import (
	"strconv"

	eventsvc "onda-backend/internal/application/events"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GET /api/v1/events/mint/:mint
func (h *Handlers) ByMint(c *fiber.Ctx) error {
	events, err := h.Service.ByMint(c.Context(), c.Params("mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Events fetched", events, nil)
}

// GET /api/v1/events/recent?limit=N
func (h *Handlers) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	events, err := h.Service.Recent(c.Context(), limit)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Events fetched", events, nil)
}

// POST /api/v1/events/mint/:mint/mirror
func (h *Handlers) MirrorMint(c *fiber.Ctx) error {
	if err := h.Service.MirrorMint(c.Context(), c.Params("mint")); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Event history mirrored", nil, nil)
}
