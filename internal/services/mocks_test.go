package services_test

import (
	"context"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	"github.com/stretchr/testify/mock"
)

// MockValidator is a mock implementation of FormValidator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateAndSanitize(ctx context.Context, body map[string]any, client models.ClientContext) models.ValidationResult {
	args := m.Called(ctx, body, client)
	return args.Get(0).(models.ValidationResult)
}

// MockInspector is a mock implementation of ContentInspector
type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) CheckForMaliciousPatterns(text string) bool {
	args := m.Called(text)
	return args.Bool(0)
}

// MockSenderFactory is a mock implementation of SenderFactory
type MockSenderFactory struct {
	mock.Mock
}

func (m *MockSenderFactory) Sender(settings config.EmailSettings) (email.Sender, error) {
	args := m.Called(settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(email.Sender), args.Error(1)
}

// MockSender is a mock implementation of email.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *email.Message) (*email.SendResult, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*email.SendResult), args.Error(1)
}
