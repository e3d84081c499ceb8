package loans

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	loansvc "onda-backend/internal/application/loans"
	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/metadata"
	"onda-backend/internal/token"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testCollection = "collectionC"
	testMint       = "mintA"
)

func setupLoanService(t *testing.T) (*loansvc.Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.TokenAccount{}, &domain.TokenManager{}, &domain.CollectionPolicy{},
		&domain.Wallet{}, &domain.Loan{}, &domain.Rental{}, &domain.EscrowEvent{},
	))
	require.NoError(t, db.Create(&domain.CollectionPolicy{
		Mint: testCollection, Authority: "authority",
		LoanEnabled: true, OptionEnabled: true, RentalEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.TokenAccount{Owner: "alice", Mint: testMint, Amount: 1}).Error)
	require.NoError(t, domain.CreditLamports(db, "bob", 5_000_000_000))

	resolver := (&metadata.StaticResolver{}).Add(&metadata.Metadata{
		Mint:               testMint,
		CollectionMint:     testCollection,
		CollectionVerified: true,
	})
	svc := &loansvc.Service{
		DB:      db,
		Custody: &custody.Service{Tokens: token.LedgerGateway{}, Metadata: resolver},
		Now:     time.Now,
	}
	return svc, db
}

// newLoanApp mounts the handlers behind a stand-in for the session middleware.
func newLoanApp(svc *loansvc.Service, wallet string) *fiber.App {
	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if wallet != "" {
			c.Locals("user", map[string]interface{}{
				"user_id":        "550e8400-e29b-41d4-a716-446655440000",
				"fullname":       "Test",
				"email":          "test@example.com",
				"role":           "trader",
				"wallet_address": wallet,
			})
		}
		return c.Next()
	})
	app.Post("/loans/ask", h.Ask)
	app.Post("/loans/:loan_id/give", h.Give)
	app.Get("/loans/mint/:mint", h.ByMint)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (map[string]interface{}, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest("POST", path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	return out, resp.StatusCode
}

func TestAskCreatesListing(t *testing.T) {
	svc, db := setupLoanService(t)
	app := newLoanApp(svc, "alice")

	out, status := postJSON(t, app, "/loans/ask", map[string]interface{}{
		"mint": testMint, "amount": 1_000_000_000, "basis_points": 500, "duration": 2_592_000,
	})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "success", out["status"])

	var loan domain.Loan
	require.NoError(t, db.Where("mint = ?", testMint).First(&loan).Error)
	assert.Equal(t, domain.LoanStateListed, loan.State)
}

func TestAskWithoutSessionIsUnauthorized(t *testing.T) {
	svc, _ := setupLoanService(t)
	app := newLoanApp(svc, "")

	_, status := postJSON(t, app, "/loans/ask", map[string]interface{}{
		"mint": testMint, "amount": 1_000_000_000, "basis_points": 500, "duration": 2_592_000,
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAskMissingMintIsBadRequest(t *testing.T) {
	svc, _ := setupLoanService(t)
	app := newLoanApp(svc, "alice")

	_, status := postJSON(t, app, "/loans/ask", map[string]interface{}{
		"amount": 1_000_000_000, "basis_points": 500, "duration": 2_592_000,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGiveFundsListing(t *testing.T) {
	svc, db := setupLoanService(t)
	loan, err := svc.Ask(context.Background(), "alice", testMint, 1_000_000_000, 500, 2_592_000)
	require.NoError(t, err)

	app := newLoanApp(svc, "bob")
	out, status := postJSON(t, app, "/loans/"+loan.LoanID.String()+"/give", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "success", out["status"])

	var funded domain.Loan
	require.NoError(t, db.Where("loan_id = ?", loan.LoanID).First(&funded).Error)
	assert.Equal(t, domain.LoanStateActive, funded.State)
}

func TestGiveMapsDomainErrors(t *testing.T) {
	svc, _ := setupLoanService(t)
	loan, err := svc.Ask(context.Background(), "alice", testMint, 1_000_000_000, 500, 2_592_000)
	require.NoError(t, err)
	_, err = svc.Give(context.Background(), "bob", loan.LoanID)
	require.NoError(t, err)

	// Funding an already active loan maps to a conflict.
	app := newLoanApp(svc, "carol")
	out, status := postJSON(t, app, "/loans/"+loan.LoanID.String()+"/give", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "error", out["status"])

	_, status = postJSON(t, app, "/loans/not-a-uuid/give", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestByMintIsPublic(t *testing.T) {
	svc, _ := setupLoanService(t)
	_, err := svc.Ask(context.Background(), "alice", testMint, 1_000_000_000, 500, 2_592_000)
	require.NoError(t, err)

	app := newLoanApp(svc, "")
	req := httptest.NewRequest("GET", "/loans/mint/"+testMint, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	data, _ := out["data"].([]interface{})
	assert.Len(t, data, 1)
}
