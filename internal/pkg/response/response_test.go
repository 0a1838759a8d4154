package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFail_ValidationFieldsInPayload(t *testing.T) {
	err := apperr.Validation("VALIDATION_FAILED", "Validation failed").
		WithFields(map[string]string{"email": "email"})

	code, body := render(t, func(c *gin.Context) { Fail(c, err) })
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Validation failed", body["status_message"])
	assert.Equal(t, map[string]any{"email": "email"}, body["payload"])
	assert.Nil(t, body["exception"])
}

func TestFail_StateCarriesCurrentStatus(t *testing.T) {
	err := apperr.State("ORDER_NOT_CANCELLABLE", "Order cannot be cancelled", "SHIPPED")

	code, body := render(t, func(c *gin.Context) { Fail(c, err) })
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, map[string]any{"current_status": "SHIPPED"}, body["payload"])
}

func TestFail_InternalHidesDetailUnlessDebug(t *testing.T) {
	cause := errors.New("pq: connection refused")

	SetDebug(false)
	code, body := render(t, func(c *gin.Context) { Fail(c, cause) })
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["status_message"])
	assert.Equal(t, map[string]any{"type": "InternalError"}, body["exception"])

	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	_, body = render(t, func(c *gin.Context) { Fail(c, cause) })
	exc := body["exception"].(map[string]any)
	assert.Equal(t, "pq: connection refused", exc["exception_message"])
}

func TestSuccess(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, "Order created", gin.H{"id": "o1"})
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, map[string]any{"id": "o1"}, body["payload"])
}
