package payments

import (
	"strconv"

	authsvc "onda-backend/internal/application/auth"
	"onda-backend/internal/middleware"
	"onda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type StripePaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &StripePaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

type TopUpHandlers struct {
	StripeCreator StripePaymentIntentCreator
	// USD cents charged per SOL of wallet credit.
	CentsPerSol int64
}

// TopUp POST /api/v1/wallets/top-up — only creates the Stripe PaymentIntent.
// The lamports are credited when the payment_intent.succeeded webhook arrives.
func (h *TopUpHandlers) TopUp(c *fiber.Ctx) error {
	wallet, err := authsvc.WalletOf(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Lamports int64 `json:"lamports"`
	}
	if err := c.BodyParser(&body); err != nil || body.Lamports <= 0 {
		return response.Error(c, "lamports must be a positive number", fiber.StatusBadRequest, nil)
	}

	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", fiber.StatusInternalServerError, nil)
	}
	centsPerSol := h.CentsPerSol
	if centsPerSol == 0 {
		centsPerSol = 2_500
	}
	amountCents := (body.Lamports*centsPerSol + lamportsPerSol - 1) / lamportsPerSol
	pi, err := h.StripeCreator.Create(amountCents, "usd", map[string]string{
		"wallet_address":  wallet,
		"lamports_amount": strconv.FormatInt(body.Lamports, 10),
	})
	if err != nil {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		return response.Error(c, err.Error(), code, nil)
	}

	return response.Success(c, "Payment intent created", fiber.Map{
		"payment_intent_id": pi.ID,
		"client_secret":     pi.ClientSecret,
	}, nil)
}

const lamportsPerSol = 1_000_000_000
