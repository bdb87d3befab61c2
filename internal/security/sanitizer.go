package security

import (
	"context"
	"html"
	"strings"
	"unicode"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Sanitizer cleans contact form fields and checks the cleaned values against
// the contact schema.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer that strips all markup.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// ValidateAndSanitize returns the sanitized submission when every field
// passes, or the list of human readable errors otherwise.
func (s *Sanitizer) ValidateAndSanitize(ctx context.Context, body map[string]any, client models.ClientContext) models.ValidationResult {
	submission, typeErrs := submissionFromBody(body)

	submission.Name = s.Clean(submission.Name)
	submission.Email = strings.ToLower(s.Clean(submission.Email))
	submission.Subject = s.Clean(submission.Subject)
	submission.Message = s.Clean(submission.Message)

	fieldErrs := append(typeErrs, validateSubmission(submission, typeErrs)...)
	if len(fieldErrs) > 0 {
		errs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs = append(errs, fe.Message)
		}

		logger.Debug("Contact form failed validation",
			append(logger.TraceFields(ctx),
				zap.String("client_ip", client.IP),
				zap.Strings("errors", errs))...)

		return models.ValidationResult{Valid: false, Errors: errs}
	}

	return models.ValidationResult{Valid: true, Data: submission, Errors: []string{}}
}

// Clean strips markup and control characters and trims surrounding space.
// Entities produced by the markup policy are decoded again so the plain text
// reaches the pattern check and the email templates unchanged.
func (s *Sanitizer) Clean(value string) string {
	if value == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(value))
	return strings.TrimSpace(strings.Map(dropControl, stripped))
}

func dropControl(r rune) rune {
	if r == '\n' || r == '\t' {
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
