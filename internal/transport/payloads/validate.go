package payloads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/phamquangkhanh2999/order-api/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}

		return fld.Name
	})

	return v
}

// Validate checks v against its validate tags. Violations come back as a validation *apperr.Error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return apperr.Validation(map[string][]string{"body": {err.Error()}})
	}

	fields := make(map[string][]string, len(violations))
	for _, fe := range violations {
		fields[fe.Field()] = append(fields[fe.Field()], violationMessage(fe))
	}

	return apperr.Validation(fields)
}

// DecodeJSON decodes a single JSON object from r into dst, rejecting unknown fields.
func DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(jsonViolations(err))
	}
	if dec.More() {
		return apperr.Validation(map[string][]string{"body": {"request body must contain a single JSON object"}})
	}

	return nil
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// DecodeQuery decodes URL query values into dst using schema tags.
func DecodeQuery(values map[string][]string, dst any) error {
	err := queryDecoder.Decode(dst, values)
	if err == nil {
		return nil
	}

	fields := map[string][]string{}
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for key, fieldErr := range multi {
			var conv schema.ConversionError
			if errors.As(fieldErr, &conv) {
				fields[key] = append(fields[key], fmt.Sprintf("%s must be a %s", key, conv.Type))
				continue
			}
			fields[key] = append(fields[key], fieldErr.Error())
		}
	} else {
		fields["query"] = []string{err.Error()}
	}

	return apperr.Validation(fields)
}

func jsonViolations(err error) map[string][]string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return map[string][]string{field: {fmt.Sprintf("%s must be a %s", field, typeErr.Type)}}
	case errors.As(err, &syntaxErr):
		return map[string][]string{"body": {fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}}
	case errors.Is(err, io.EOF):
		return map[string][]string{"body": {"request body must not be empty"}}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return map[string][]string{field: {fmt.Sprintf("property %s should not exist", field)}}
	default:
		return map[string][]string{"body": {err.Error()}}
	}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " should not be empty"
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not be greater than %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", fe.Field(), fe.Param())
	case "url":
		return fe.Field() + " must be a URL address"
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed on the %s rule", fe.Field(), fe.Tag())
	}
}
