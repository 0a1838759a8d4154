package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query         string
		limit, offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", 100, 0},
		{"?limit=abc&offset=-1", 20, 0},
		{"?limit=0&offset=3", 20, 3},
		{"?limit=-4", 20, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/x"+tt.query, nil)
		limit, offset := Page(c)
		assert.Equal(t, tt.limit, limit, tt.query)
		assert.Equal(t, tt.offset, offset, tt.query)
	}
}

func TestInt64Param(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := Int64Param(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	c.Params = gin.Params{{Key: "id", Value: "x"}}
	_, err = Int64Param(c, "id")
	assert.ErrorIs(t, err, ErrInvalidID)
}
