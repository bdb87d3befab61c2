package services

import (
	"context"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
)

// ContactServiceInterface defines the interface for contact service operations
type ContactServiceInterface interface {
	SubmitContactForm(ctx context.Context, body map[string]any, client models.ClientContext) (*models.ContactResponse, error)
}

// FormValidator checks and cleans the submitted fields
type FormValidator interface {
	ValidateAndSanitize(ctx context.Context, body map[string]any, client models.ClientContext) models.ValidationResult
}

// ContentInspector scans text for injection payloads and spam
type ContentInspector interface {
	CheckForMaliciousPatterns(text string) bool
}

// SenderFactory builds the email sender for the given settings
type SenderFactory interface {
	Sender(settings config.EmailSettings) (email.Sender, error)
}
