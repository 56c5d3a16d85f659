package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"harvestly/internal/models"
)

var (
	pincodePattern     = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	mobilePattern      = regexp.MustCompile(`^[6-9]\d{9}$`)
	indianPhonePattern = regexp.MustCompile(`^(\+91[\-\s]?)?[0]?(91)?[789]\d{9}$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the storefront tags registered:
// pincode (six digit PIN), mobile (ten digit mobile number) and indianphone
// (mobile with optional +91 / 0 prefix).
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "pincode", pincodePattern)
		mustRegister(v, "mobile", mobilePattern)
		mustRegister(v, "indianphone", indianPhonePattern)
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return field.Name
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Struct validates v and returns a *models.ValidationError with one message
// per failing field, or nil.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	return translate(err)
}

// Var validates a single value against tag and reports it under field.
func Var(field string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &models.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(field, message(field, fe))
	}
	return verr
}

// Merge folds the field messages of err into dst. Errors that are not
// validation errors are returned unchanged.
func Merge(dst *models.ValidationError, err error) error {
	if err == nil {
		return nil
	}
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	dst.Errors = append(dst.Errors, verr.Errors...)
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &models.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe.Field(), fe))
	}
	return verr
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if field == "password" {
			return "password must be at least " + fe.Param() + " characters long"
		}
		return field + " must be at least " + fe.Param()
	case "eqfield":
		if field == "confirmPassword" {
			return "passwords do not match"
		}
		return field + " must match " + fe.Param()
	case "email":
		return "please enter a valid email address"
	case "pincode":
		return field + " must be a valid 6-digit PIN code"
	case "mobile", "indianphone":
		return field + " must be a valid 10-digit mobile number"
	case "oneof":
		return field + " must be one of " + fe.Param()
	}
	return field + " is invalid"
}
