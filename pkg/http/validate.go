package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	validate = newValidator()

	messagesMu sync.RWMutex
	// messages renders a failed tag for a field reported by its wire name.
	messages = map[string]func(fe validator.FieldError) string{
		"required": func(fe validator.FieldError) string {
			return fmt.Sprintf("%s is required", fe.Field())
		},
		"max": func(fe validator.FieldError) string {
			if fe.Kind() == reflect.String {
				return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
			}
			return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		},
		"oneof": func(fe validator.FieldError) string {
			return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
		},
		"gte": func(fe validator.FieldError) string {
			return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
		},
		"lte": func(fe validator.FieldError) string {
			return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
		},
	}
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// RegisterStringRule adds a validation tag for string fields. message receives the field name.
func RegisterStringRule(tag string, ok func(string) bool, message func(field string) string) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return ok(fl.Field().String())
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", tag, err)
	}
	messagesMu.Lock()
	messages[tag] = func(fe validator.FieldError) string { return message(fe.Field()) }
	messagesMu.Unlock()
	return nil
}

// ReadAndValidateRequest binds the request, applies defaults and validates it.
// It returns nil on success.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: messageFor(fe),
				Params:  paramsFor(fe),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func messageFor(fe validator.FieldError) string {
	messagesMu.RLock()
	render, ok := messages[fe.Tag()]
	messagesMu.RUnlock()
	if ok {
		return render(fe)
	}
	return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
}

func paramsFor(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	return nil
}
