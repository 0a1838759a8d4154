package validator

import (
	"errors"
	"reflect"
	"strings"

	"storefront/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	// gin keeps its own instance for `binding` tags.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// Validate struct fields using `validate` tags.
func Validate(v any) map[string]string {
	return Fields(validate.Struct(v))
}

// Fields flattens validator output into field -> failed rule.
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"body": "invalid"}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fieldPath(fe)] = fe.Tag()
	}
	return out
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// BindJSON decodes the request body and reports failures as a ValidationError.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("VALIDATION_ERROR", "Invalid request body").WithFields(Fields(err))
	}
	return nil
}
