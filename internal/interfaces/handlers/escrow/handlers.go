package escrow

import (
	authsvc "onda-backend/internal/application/auth"
	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	DB      *gorm.DB
	Custody *custody.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/escrow/:mint/claim
func (h *Handlers) Claim(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	mint := c.Params("mint")
	err = h.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.Custody.Claim(tx, mint, wallet); err != nil {
			return err
		}
		return domain.RecordEvent(tx, mint, "ESCROW_CLAIMED", wallet, map[string]interface{}{
			"claimed_by": wallet,
		})
	})
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Escrowed asset claimed", nil, nil)
}

// GET /api/v1/escrow/:mint
func (h *Handlers) Manager(c *fiber.Ctx) error {
	manager, err := h.Custody.Manager(h.DB.WithContext(c.Context()), c.Params("mint"))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Custody ledger fetched", manager, nil)
}
