package validation

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks a form or query that failed binding or validation.
var ErrInvalidInput = errors.New("invalid input")

// BindForm binds a posted form into `out` and runs validation.
func BindForm(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBind(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return check(out, v)
}

// BindQuery binds the URL query into `out` and runs validation.
func BindQuery(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindQuery(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return check(out, v)
}

func check(out interface{}, v *validatorv10.Validate) error {
	if err := v.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, ErrorsToMap(err))
	}
	return nil
}

// ErrorsToMap flattens validator errors into namespace -> message.
func ErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
