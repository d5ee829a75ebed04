package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks request bodies. Field errors are reported under their JSON
// names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
