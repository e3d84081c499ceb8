package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"onda-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret_123"

func setupWebhookTest(t *testing.T) (*WebhookHandler, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}, &domain.Wallet{}))
	return &WebhookHandler{DB: db, WebhookSecret: testSecret}, db
}

func signPayload(t *testing.T, payload []byte, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%s,v1=%s", ts, sig)
}

func topUpEvent(wallet, lamports string) []byte {
	event := map[string]interface{}{
		"id":   "evt_test_123",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":              "pi_test_123",
				"amount_received": 2500,
				"currency":        "usd",
				"status":          "succeeded",
				"metadata": map[string]string{
					"wallet_address":  wallet,
					"lamports_amount": lamports,
				},
			},
		},
	}
	body, _ := json.Marshal(event)
	return body
}

func TestWebhook_MissingSignature(t *testing.T) {
	wh, _ := setupWebhookTest(t)
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	wh, _ := setupWebhookTest(t)
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)

	body := []byte(`{"type":"payment_intent.succeeded"}`)
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("stripe-signature", "t=123,v1=invalid")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestWebhook_PaymentIntentSucceeded_CreditsWallet(t *testing.T) {
	wh, db := setupWebhookTest(t)
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)

	body := topUpEvent("alice", "1000000000")
	sig := signPayload(t, body, testSecret)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("stripe-signature", sig)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var w domain.Wallet
	require.NoError(t, db.Where("address = ?", "alice").First(&w).Error)
	assert.Equal(t, int64(1_000_000_000), w.Lamports)

	var payment domain.Payment
	require.NoError(t, db.Where("stripe_payment_intent_id = ?", "pi_test_123").First(&payment).Error)
	assert.Equal(t, "alice", payment.WalletAddress)
}

func TestWebhook_DuplicateIntentCreditsOnce(t *testing.T) {
	wh, db := setupWebhookTest(t)
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)

	body := topUpEvent("alice", "500")
	for i := 0; i < 2; i++ {
		sig := signPayload(t, body, testSecret)
		req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("stripe-signature", sig)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}

	var w domain.Wallet
	require.NoError(t, db.Where("address = ?", "alice").First(&w).Error)
	assert.Equal(t, int64(500), w.Lamports)
}

func TestWebhook_MissingMetadataSkipped(t *testing.T) {
	wh, db := setupWebhookTest(t)
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)

	body := topUpEvent("", "")
	sig := signPayload(t, body, testSecret)
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("stripe-signature", sig)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var count int64
	db.Model(&domain.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
