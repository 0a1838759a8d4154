package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "test",
		DatabaseURL:        "file:app_" + uuid.NewString() + "?mode=memory&cache=shared",
		RequestTimeout:     5 * time.Second,
		JWTSecret:          "test-secret",
		JWTAccessTTL:       10 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		RefreshTokenPepper: "test-pepper",
		Razorpay: config.RazorpayConfig{
			KeyID:     "rzp_test_key",
			KeySecret: "rzp_test_secret",
			BaseURL:   "http://127.0.0.1:1",
			Timeout:   time.Second,
		},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (int, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestRouter_Health(t *testing.T) {
	r := newTestApp(t).Router()
	code, env := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Status)
}

func TestRouter_CustomerJourney(t *testing.T) {
	r := newTestApp(t).Router()

	code, env := call(t, r, http.MethodPost, "/api/v1/register", "", gin.H{
		"username": "meera",
		"email":    "meera@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, code, env.StatusMessage)
	login := env.Payload.(map[string]any)
	access := login["access_token"].(string)
	refresh := login["refresh_token"].(string)
	assert.Equal(t, float64(600), login["expires_in"])

	code, env = call(t, r, http.MethodPost, "/api/v1/orders", access, gin.H{
		"items": []gin.H{{"product_id": 9, "name": "Desk Lamp", "quantity": 1, "price": "1499.00"}},
		"shipping_address": gin.H{
			"full_address": "22 Lake View", "city": "Chennai", "state": "TN", "pincode": "600001",
		},
	})
	require.Equal(t, http.StatusCreated, code, env.StatusMessage)
	orderID := env.Payload.(map[string]any)["id"].(string)

	code, env = call(t, r, http.MethodPut, "/api/v1/orders/"+orderID+"/cancel", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CANCELLED", env.Payload.(map[string]any)["status"])

	code, _ = call(t, r, http.MethodGet, "/api/v1/admin/orders", access, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, r, http.MethodPost, "/api/v1/refresh-token", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, env.Payload.(map[string]any)["access_token"])

	code, _ = call(t, r, http.MethodPost, "/api/v1/logout", access, gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, r, http.MethodPost, "/api/v1/refresh-token", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired refresh token", env.StatusMessage)
}

func TestRouter_GatewayDownIsRetryable(t *testing.T) {
	r := newTestApp(t).Router()

	_, env := call(t, r, http.MethodPost, "/api/v1/register", "", gin.H{
		"username": "ravi", "email": "ravi@example.com", "password": "s3cret-pass",
	})
	access := env.Payload.(map[string]any)["access_token"].(string)

	_, env = call(t, r, http.MethodPost, "/api/v1/orders", access, gin.H{
		"items": []gin.H{{"product_id": 3, "name": "Notebook", "quantity": 2, "price": "45.50"}},
		"shipping_address": gin.H{
			"full_address": "7 Hill Rd", "city": "Mumbai", "state": "MH", "pincode": "400050",
		},
	})
	orderID := env.Payload.(map[string]any)["id"].(string)

	code, env := call(t, r, http.MethodPost, "/api/v1/payments/create-order", access, gin.H{
		"orderId":         orderID,
		"amount":          "91.00",
		"currency":        "INR",
		"customerDetails": gin.H{"name": "Ravi", "email": "ravi@example.com", "phone": "+919811111111"},
	})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, true, env.Payload.(map[string]any)["retryable"])
}
