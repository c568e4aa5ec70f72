package providers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidatePaymentData checks the invariants shared by every gateway:
// a positive amount and a three-letter currency code.
func ValidatePaymentData(req PaymentRequest) ValidationResult {
	errs := []string{}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fieldMessage(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be a %s-letter code", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// checkPayment runs the shared validator and converts a failure into the
// error envelope. It returns nil when the request is valid.
func checkPayment(gateway string, req PaymentRequest) *Result {
	v := ValidatePaymentData(req)
	if v.IsValid {
		return nil
	}
	return newValidationFailure(gateway, "Invalid payment data: "+strings.Join(v.Errors, ", "), v.Errors)
}
