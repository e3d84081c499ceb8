package offers

import (
	authsvc "onda-backend/internal/application/auth"
	offersvc "onda-backend/internal/application/offers"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *offersvc.Service
}

func actorWallet(c *fiber.Ctx) (string, error) {
	return authsvc.WalletOf(middleware.GetUser(c))
}

// POST /api/v1/offers/loans
func (h *Handlers) OfferLoan(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		CollectionMint string `json:"collection_mint"`
		Amount         int64  `json:"amount"`
		BasisPoints    int64  `json:"basis_points"`
		Duration       int64  `json:"duration"`
		OfferID        int16  `json:"offer_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.CollectionMint == "" {
		return response.Error(c, "collection_mint, amount, basis_points, duration and offer_id are required", fiber.StatusBadRequest, nil)
	}
	offer, err := h.Service.OfferLoan(c.Context(), wallet, body.CollectionMint, body.Amount, body.BasisPoints, body.Duration, body.OfferID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Loan offer made", offer, nil)
}

// DELETE /api/v1/offers/loans
func (h *Handlers) CloseLoanOffer(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		CollectionMint string `json:"collection_mint"`
		OfferID        int16  `json:"offer_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.CollectionMint == "" {
		return response.Error(c, "collection_mint and offer_id are required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.CloseLoanOffer(c.Context(), wallet, body.CollectionMint, body.OfferID); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Loan offer closed", nil, nil)
}

// POST /api/v1/offers/loans/take
func (h *Handlers) TakeLoanOffer(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint    string `json:"mint"`
		Lender  string `json:"lender"`
		OfferID int16  `json:"offer_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" || body.Lender == "" {
		return response.Error(c, "mint, lender and offer_id are required", fiber.StatusBadRequest, nil)
	}
	loan, err := h.Service.TakeLoanOffer(c.Context(), wallet, body.Mint, body.Lender, body.OfferID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Loan offer taken", loan, nil)
}

// POST /api/v1/offers/options
func (h *Handlers) BidCallOption(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		CollectionMint string `json:"collection_mint"`
		Premium        int64  `json:"premium"`
		StrikePrice    int64  `json:"strike_price"`
		Expiry         int64  `json:"expiry"`
		BidID          int16  `json:"bid_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.CollectionMint == "" {
		return response.Error(c, "collection_mint, premium, strike_price, expiry and bid_id are required", fiber.StatusBadRequest, nil)
	}
	bid, err := h.Service.BidCallOption(c.Context(), wallet, body.CollectionMint, body.Premium, body.StrikePrice, body.Expiry, body.BidID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Call option bid made", bid, nil)
}

// DELETE /api/v1/offers/options
func (h *Handlers) CloseBid(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		CollectionMint string `json:"collection_mint"`
		BidID          int16  `json:"bid_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.CollectionMint == "" {
		return response.Error(c, "collection_mint and bid_id are required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.CloseBid(c.Context(), wallet, body.CollectionMint, body.BidID); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Call option bid closed", nil, nil)
}

// POST /api/v1/offers/options/sell
func (h *Handlers) SellCallOption(c *fiber.Ctx) error {
	wallet, err := actorWallet(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Mint  string `json:"mint"`
		Buyer string `json:"buyer"`
		BidID int16  `json:"bid_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mint == "" || body.Buyer == "" {
		return response.Error(c, "mint, buyer and bid_id are required", fiber.StatusBadRequest, nil)
	}
	option, err := h.Service.SellCallOption(c.Context(), wallet, body.Mint, body.Buyer, body.BidID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.SuccessCreated(c, "Call option sold into bid", option, nil)
}

// GET /api/v1/offers/loans/:collection_mint
func (h *Handlers) ByCollection(c *fiber.Ctx) error {
	offers, err := h.Service.ByCollection(c.Context(), c.Params("collection_mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Loan offers fetched", offers, nil)
}

// GET /api/v1/offers/options/:collection_mint
func (h *Handlers) BidsByCollection(c *fiber.Ctx) error {
	bids, err := h.Service.BidsByCollection(c.Context(), c.Params("collection_mint"))
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Call option bids fetched", bids, nil)
}
