package response

import (
	"net/http"
	"sync/atomic"

	"storefront/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status        bool   `json:"status"`
	StatusMessage string `json:"status_message"`
	Payload       any    `json:"payload"`
	Exception     any    `json:"exception"`
}

var debug atomic.Bool

// SetDebug toggles diagnostic detail in the exception field of internal errors.
func SetDebug(on bool) { debug.Store(on) }

func Success(c *gin.Context, statusCode int, message string, payload any) {
	c.JSON(statusCode, Envelope{
		Status:        true,
		StatusMessage: message,
		Payload:       payload,
	})
}

func Error(c *gin.Context, statusCode int, message string, payload any) {
	c.JSON(statusCode, Envelope{
		Status:        false,
		StatusMessage: message,
		Payload:       payload,
	})
}

// Fail writes err using its classification. The error is also attached to the
// gin context so the request logger records it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	e := apperr.From(err)

	env := Envelope{StatusMessage: e.Message}
	switch e.Kind {
	case apperr.KindValidation:
		if len(e.Fields) > 0 {
			env.Payload = e.Fields
		}
	case apperr.KindState:
		env.Payload = gin.H{"current_status": e.State}
	case apperr.KindGateway:
		env.Payload = gin.H{"retryable": e.Retryable}
	case apperr.KindInternal:
		env.Exception = exception(e)
	}
	c.JSON(e.HTTPStatus(), env)
}

// Abort is Fail for middleware.
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

func exception(e *apperr.Error) gin.H {
	out := gin.H{"type": e.Kind.String()}
	if debug.Load() && e.Err != nil {
		out["exception_message"] = e.Err.Error()
		out["exception_source"] = e.Code
	}
	return out
}

// Panic writes the envelope used when a handler panicked.
func Panic(c *gin.Context, recovered any) {
	env := Envelope{
		StatusMessage: "Internal server error",
		Exception:     gin.H{"type": apperr.KindInternal.String()},
	}
	if debug.Load() {
		env.Exception = gin.H{
			"type":              apperr.KindInternal.String(),
			"exception_message": recovered,
			"exception_source":  "panic",
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, env)
}
