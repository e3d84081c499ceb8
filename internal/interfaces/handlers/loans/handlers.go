package loans

import (
	authsvc "onda-backend/internal/application/auth"
	loansvc "onda-backend/internal/application/loans"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *loansvc.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/loans/ask
func (h *Handlers) Ask(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint        string `json:"mint"`
		Amount      int64  `json:"amount"`
		BasisPoints int64  `json:"basis_points"`
		Duration    int64  `json:"duration"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" {
		return response.Error(c, "mint, amount, basis_points and duration are required", fiber.StatusBadRequest, nil)
	}
	loan, err := h.Service.Ask(c.Context(), wallet, body.Mint, body.Amount, body.BasisPoints, body.Duration)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Loan listed", loan, nil)
}

// POST /api/v1/loans/:loan_id/give
func (h *Handlers) Give(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, err := uuid.Parse(c.Params("loan_id"))
	if err != nil {
		return response.Error(c, "loan_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	loan, err := h.Service.Give(c.Context(), wallet, loanID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Loan funded", loan, nil)
}

// POST /api/v1/loans/:loan_id/repay
func (h *Handlers) Repay(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, err := uuid.Parse(c.Params("loan_id"))
	if err != nil {
		return response.Error(c, "loan_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.Repay(c.Context(), wallet, loanID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Loan repaid", result, nil)
}

// POST /api/v1/loans/:loan_id/repossess
func (h *Handlers) Repossess(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, err := uuid.Parse(c.Params("loan_id"))
	if err != nil {
		return response.Error(c, "loan_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	loan, err := h.Service.Repossess(c.Context(), wallet, loanID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Loan defaulted, asset escrowed for claim", loan, nil)
}

// DELETE /api/v1/loans/:loan_id
func (h *Handlers) Close(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	loanID, err := uuid.Parse(c.Params("loan_id"))
	if err != nil {
		return response.Error(c, "loan_id must be a valid UUID", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Close(c.Context(), wallet, loanID); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Loan listing closed", nil, nil)
}

// GET /api/v1/loans/mint/:mint
func (h *Handlers) ByMint(c *fiber.Ctx) error {
	loans, err := h.Service.ByMint(c.Context(), c.Params("mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Loans fetched", loans, nil)
}

// GET /api/v1/loans/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	loans, err := h.Service.ByBorrower(c.Context(), wallet)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Loans fetched", loans, nil)
}
