package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// The shared instance is built lazily; handlers validate request payloads on
// every bind, so field-name resolution must be configured exactly once.
var (
	buildOnce sync.Once
	shared    *validator.Validate
)

// ValidationError reports one field that failed a rule.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors aggregates every failed field of a payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, failure := range v {
		msg := failure.Field + " failed on " + failure.Tag
		if failure.Param != "" {
			msg += "=" + failure.Param
		}
		parts[i] = msg
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct checks s against its validate tags. Failures come back as
// ValidationErrors keyed by the JSON field names clients actually sent.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

// RegisterValidation adds a custom rule to the shared instance.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

func instance() *validator.Validate {
	buildOnce.Do(func() {
		shared = validator.New()
		shared.RegisterTagNameFunc(jsonFieldName)
	})
	return shared
}

// jsonFieldName reports the name a field carries on the wire so error
// messages match the request payload rather than the Go struct.
func jsonFieldName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "" {
		return fld.Name
	}
	if comma := strings.Index(name, ","); comma != -1 {
		name = name[:comma]
	}
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
