package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "IN"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var validate = newValidator()

// newValidator reports json field names instead of Go field names.
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

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// NormalizePhoneNumber formats a valid number as E.164 so uniqueness checks compare like with like.
func NormalizePhoneNumber(phoneNumber, countryCode string) (string, error) {
	if err := ValidatePhoneNumber(phoneNumber, countryCode); err != nil {
		return "", err
	}
	p, _ := libphonenumber.Parse(phoneNumber, countryCode)
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["_"] = err.Error()
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

// ValidateStruct runs struct tags and converts failures to a validation AppError.
func ValidateStruct(input any) error {
	if err := validate.Struct(input); err != nil {
		return NewValidationError("invalid input", ProcessValidationErrors(err))
	}
	return nil
}

// FirstNonBlank implements the non-empty-wins merge for strings.
func FirstNonBlank(incoming, current string) string {
	if strings.TrimSpace(incoming) != "" {
		return incoming
	}
	return current
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}
