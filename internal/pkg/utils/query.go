package utils

import (
	"strconv"

	"storefront/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var ErrInvalidID = apperr.Validation("INVALID_ID", "Invalid id")

// Page reads ?limit= and ?offset=, falling back to defaults on bad input.
func Page(c *gin.Context) (limit, offset int) {
	limit = parseIntDefault(c.Query("limit"), defaultLimit)
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = parseIntDefault(c.Query("offset"), 0)
	return limit, offset
}

// Int64Param parses a positive numeric path parameter.
func Int64Param(c *gin.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidID.WithFields(map[string]string{name: "invalid"})
	}
	return n, nil
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
