package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/pkg/jwt"
	"storefront/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*fixture
	router *gin.Engine
	codec  *jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	codec := jwt.New("secret", 10*time.Minute, time.Hour)

	r := gin.New()
	r.Use(middleware.RequestLogger(zerolog.Nop()), middleware.Authenticate(codec))
	h := NewHandler(f.svc)
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	h.RegisterProtectedRoutes(v1.Group("", middleware.RequireAuth()))

	return &testServer{fixture: f, router: r, codec: codec}
}

func (s *testServer) token(t *testing.T, id domain.Identity) string {
	t.Helper()
	tok, _, err := s.codec.Sign(jwt.Subject{UserID: id.UserID, Username: id.Username, Role: string(id.Role)}, jwt.TokenTypeAccess)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body []byte, header map[string]string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandler_CheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	o := s.seedOrder(t, "2129.98", domain.OrderPending, domain.PaymentCreated, "")
	tok := s.token(t, s.owner)

	w, env := s.do(t, http.MethodPost, "/api/v1/payments/create-order", tok, mustJSON(t, gin.H{
		"orderId":         o.ID,
		"amount":          "2129.98",
		"currency":        "INR",
		"customerDetails": gin.H{"name": "Asha Rao", "email": "asha@example.com", "phone": "+919800000000"},
	}), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ref := env.Payload.(map[string]any)
	assert.Equal(t, float64(212998), ref["amountMinor"])
	gatewayOrderID := ref["gatewayOrderId"].(string)

	w, env = s.do(t, http.MethodPost, "/api/v1/payments/create-order", tok, mustJSON(t, gin.H{
		"orderId":         o.ID,
		"amount":          "2129.98",
		"currency":        "INR",
		"customerDetails": gin.H{"name": "Asha Rao", "email": "asha@example.com", "phone": "+919800000000"},
	}), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Status)

	verify := gin.H{
		"orderId":            o.ID,
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": "pay_123",
		"gateway_signature":  "0000",
	}
	w, env = s.do(t, http.MethodPost, "/api/v1/payments/verify", tok, mustJSON(t, verify), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid payment signature", env.StatusMessage)

	verify["gateway_signature"] = Sign(testKeySecret, []byte(gatewayOrderID+"|pay_123"))
	w, env = s.do(t, http.MethodPost, "/api/v1/payments/verify", tok, mustJSON(t, verify), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PAID", env.Payload.(map[string]any)["status"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/payments/"+o.Payment.ID+"/refund", tok, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/payments/"+o.Payment.ID+"/refund", s.token(t, s.admin), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REFUNDED", env.Payload.(map[string]any)["status"])

	w, env = s.do(t, http.MethodGet, "/api/v1/payments/"+o.Payment.ID+"/status", tok, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.Payload.(map[string]any)["refunds"], 1)
}

func TestHandler_ProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/v1/payments/verify", "", mustJSON(t, gin.H{}), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Webhook(t *testing.T) {
	s := newTestServer(t)
	o := s.seedOrder(t, "500", domain.OrderPending, domain.PaymentCreated, "")
	ref := s.openGatewayOrder(t, o)
	body := webhookBody(t, "payment.captured", ref.GatewayOrderID, "pay_wh", 50000)

	w, _ := s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, map[string]string{"X-Razorpay-Signature": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, map[string]string{"X-Razorpay-Signature": Sign(testWebhookSecret, body)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PaymentPaid, s.reload(t, o.ID).Payment.Status)
}
