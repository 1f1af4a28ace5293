package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Default messages per validation tag. Anything not listed falls back to the
// library's own message.
var tagMessages = map[string]string{
	"required": "field is required",
	"email":    "invalid email format",
	"uuid":     "must be a valid UUID",
	"min":      "value is too small",
	"max":      "value is too large",
	"oneof":    "value is not one of the allowed choices",
	"gte":      "value is too small",
	"lte":      "value is too large",
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates obj against its `validate` tags and returns a
// json-field -> message map. A nil map means obj is valid.
func Struct(obj interface{}) map[string]string {
	err := instance().Struct(obj)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		msg := tagMessages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		fields[e.Field()] = msg
	}
	return fields
}
