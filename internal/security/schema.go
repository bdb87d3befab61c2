package security

import (
	"errors"
	"reflect"
	"strings"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/go-playground/validator/v10"
)

// contactFields lists the body keys the contact schema reads, in report order.
var contactFields = []string{"name", "email", "subject", "message"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so errors read "name is required" rather than "Name is required"
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSchema checks an untrusted request body against the contact schema
// and returns one FieldError per violated field. A nil result means the body
// is valid.
func ValidateSchema(body map[string]any) []models.FieldError {
	submission, fieldErrs := submissionFromBody(body)
	return append(fieldErrs, validateSubmission(submission, fieldErrs)...)
}

// submissionFromBody copies the string fields of body. Present values of any
// other type are reported and left empty.
func submissionFromBody(body map[string]any) (*models.ContactSubmission, []models.FieldError) {
	values := make(map[string]string, len(contactFields))
	var fieldErrs []models.FieldError

	for _, field := range contactFields {
		raw, ok := body[field]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   field,
				Message: field + " must be a string",
			})
			continue
		}
		values[field] = s
	}

	return &models.ContactSubmission{
		Name:    values["name"],
		Email:   values["email"],
		Subject: values["subject"],
		Message: values["message"],
	}, fieldErrs
}

// validateSubmission runs the struct rules, skipping fields that already
// failed the type check.
func validateSubmission(submission *models.ContactSubmission, known []models.FieldError) []models.FieldError {
	err := validate.Struct(submission)
	if err == nil {
		return nil
	}

	skip := make(map[string]bool, len(known))
	for _, fe := range known {
		skip[fe.Field] = true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []models.FieldError{{Field: "body", Message: "body is invalid"}}
	}

	var fieldErrs []models.FieldError
	for _, fieldError := range validationErrors {
		if skip[fieldError.Field()] {
			continue
		}
		// one message per field; the first failing rule wins
		skip[fieldError.Field()] = true
		fieldErrs = append(fieldErrs, models.FieldError{
			Field:   fieldError.Field(),
			Message: getErrorMessage(fieldError),
		})
	}
	return fieldErrs
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must not exceed " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
