// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var ethAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

func init() {
	validate = validator.New()
	validate.RegisterValidation("eth_address", validateEthAddress)
	validate.RegisterValidation("decimal_string", validateDecimalString)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEthAddress(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if addr == "" {
		return true // pair with required when the field is mandatory
	}
	return ethAddressPattern.MatchString(addr)
}

// Amounts and on-chain ids cross the wire as decimal strings so precision is
// never lost to float64; accept an optional fractional part.
func validateDecimalString(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	matched, _ := regexp.MatchString(`^[0-9]+(\.[0-9]+)?$`, value)
	return matched
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()[:1]) + e.Field()[1:],
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "eth_address":
		return e.Field() + " must be a 0x-prefixed 20-byte hex address"
	case "decimal_string":
		return e.Field() + " must be a decimal number carried as a string"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
