package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps go-playground/validator with the project's custom types and
// returns flat, client-facing messages.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that understands decimal.Decimal amounts and reports
// fields by their json names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// Struct validates s and returns one message per failing field. A nil slice
// means the value is valid.
func (val *Validator) Struct(s any) []string {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}
	return Format(validationErrors)
}

// Format converts validator errors into readable messages.
func Format(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "email":
			out = append(out, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			out = append(out, fmt.Sprintf("%s must have minimum length %s", field, e.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must have maximum length %s", field, e.Param()))
		case "gt":
			out = append(out, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "len":
			out = append(out, fmt.Sprintf("%s must have length %s", field, e.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return out
}
