package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/jbousquie/whisperx-api/errors"
)

// Engine is the shared go-playground validator. Error field names come
// from json tags, or the snake_cased Go name when there is none.
var Engine = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return toSnakeCase(f.Name)
		}
		return name
	})
	return v
})

// Validate checks s against its `validate` tags and reports every failing
// field in one INVALID_INPUT error.
func Validate(s any) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: describe(fe)}
	}
	return fieldsError(fields)
}

// describe phrases a failed tag for clients. Length bounds on strings
// mention characters; numeric ones do not.
func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param() + unit
	case "max", "lte":
		return "must be at most " + fe.Param() + unit
	case "gtefield":
		return "must be greater than or equal to " + toSnakeCase(fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alpha":
		return "must contain letters only"
	}
	return "is invalid"
}

// toSnakeCase turns MinSpeakers into min_speakers.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
