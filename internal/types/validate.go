package types

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{7,25}$`)

// ValidationError describes a request that failed validation.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			w := sl.Current().Interface().(WorkExperience)
			checkDateRange(sl, w.StartDate, w.EndDate, w.Current)
		}, WorkExperience{})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			e := sl.Current().Interface().(Education)
			checkDateRange(sl, e.StartDate, e.EndDate, e.Current)
		}, Education{})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			p := sl.Current().Interface().(Project)
			if p.StartDate != nil && p.EndDate != nil && *p.StartDate > *p.EndDate {
				sl.ReportError(p.EndDate, "endDate", "EndDate", "afterstart", "")
			}
		}, Project{})
		validate = v
	})
	return validate
}

// checkDateRange enforces: current with no end date, or not current with an
// end date on or after the start date.
func checkDateRange(sl validator.StructLevel, start string, end *string, current bool) {
	switch {
	case current && end != nil:
		sl.ReportError(end, "endDate", "EndDate", "currentnoend", "")
	case !current && end == nil:
		sl.ReportError(end, "endDate", "EndDate", "requiredunlesscurrent", "")
	case !current && end != nil && start > *end:
		sl.ReportError(end, "endDate", "EndDate", "afterstart", "")
	}
}

// Validate checks v against its validation tags and returns a
// *ValidationError describing the first failure.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("", err.Error())
	}
	fe := verrs[0]
	return NewValidationError(fieldPath(fe.Namespace()), describe(fe))
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "phone":
		return "must be a valid phone number"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "currentnoend":
		return "must be empty when current is true"
	case "requiredunlesscurrent":
		return "is required unless current is true"
	case "afterstart":
		return "must not be before startDate"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
