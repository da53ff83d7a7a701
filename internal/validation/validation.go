// Package validation validates decoded request bodies against their struct tags.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/schedule"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return schedule.DayOfWeek(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("timelabel", func(fl validator.FieldLevel) bool {
		return schedule.TimeLabel(fl.Field().String()).IsValid()
	})
	// maxbytes bounds the encoded length of a string, max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// Struct validates the given struct, returning the first failing field as an
// apierrors.ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return apierrors.NewValidationError(fieldPath(fe), message(fe))
	}
	return err
}

// Decode decodes a JSON body into the given struct, refusing unknown fields, and validates it.
func Decode(body io.Reader, s interface{}) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(s); err != nil {
		return apierrors.NewValidationError("body", "malformed request body")
	}
	return Struct(s)
}

// fieldPath strips the root struct name from the namespace, e.g. "Request.emergency_contact.phone".
func fieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes long", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "invalid email address"
	case "weekday":
		return "invalid day"
	case "timelabel":
		return "invalid time slot"
	case "isodate":
		return "invalid date, expected YYYY-MM-DD"
	}
	return "invalid"
}
