package services

import (
	"context"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/internal/mailer"
	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/internal/security"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	apperrors "github.com/0xobelisk/dubhe-website-sub001/pkg/errors"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Response messages
const (
	MsgEmailSent         = "Email sent successfully"
	MsgReceivedDev       = "Message received (development mode - email not sent)"
	MsgReceivedProd      = "Message received successfully"
	ErrMsgInvalidInput   = "Invalid input data"
	ErrMsgInvalidContent = "Invalid content detected"
	ErrMsgSendFailed     = "Failed to send email"
)

const defaultSendTimeout = 15 * time.Second

// ContactService handles contact form submissions from the website
type ContactService struct {
	config    *config.Config
	validator FormValidator
	inspector ContentInspector
	senders   SenderFactory
	now       func() time.Time
}

// NewContactService creates a new contact service instance
func NewContactService(
	cfg *config.Config,
	validator FormValidator,
	inspector ContentInspector,
	senders SenderFactory,
) *ContactService {
	return &ContactService{
		config:    cfg,
		validator: validator,
		inspector: inspector,
		senders:   senders,
		now:       time.Now,
	}
}

// SubmitContactForm validates one submission and emails it to the operators.
// Every terminal state is reported through the response Outcome; the error is
// reserved for failures that are not part of the submission contract.
func (s *ContactService) SubmitContactForm(ctx context.Context, body map[string]any, client models.ClientContext) (*models.ContactResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.submit")
	defer span.End()

	resp, err := s.submit(ctx, body, client)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.ContactFormSubmissions.WithLabelValues("internal_error").Inc()
		return nil, err
	}

	span.SetAttributes(attribute.String("contact.outcome", string(resp.Outcome)))
	metrics.ContactFormSubmissions.WithLabelValues(string(resp.Outcome)).Inc()
	return resp, nil
}

func (s *ContactService) submit(ctx context.Context, body map[string]any, client models.ClientContext) (*models.ContactResponse, error) {
	result := s.validator.ValidateAndSanitize(ctx, body, client)
	if !result.Valid || result.Data == nil {
		details := result.Errors
		if len(details) == 0 {
			details = []string{"Validation failed"}
		}
		return failure(models.OutcomeInvalidInput, ErrMsgInvalidInput, details), nil
	}
	data := result.Data

	if s.inspector.CheckForMaliciousPatterns(data.Name + " " + data.Email + " " + data.Message) {
		metrics.MaliciousContentRejections.Inc()
		logger.Warn("Malicious content detected in contact form",
			append(logger.TraceFields(ctx),
				zap.String("client_ip", client.IP),
				zap.String("user_agent", client.UserAgent))...)
		return failure(models.OutcomeRejectedContent, ErrMsgInvalidContent, nil), nil
	}

	// strict schema on the original, unsanitized body
	if fieldErrs := security.ValidateSchema(body); len(fieldErrs) > 0 {
		return failure(models.OutcomeInvalidInput, ErrMsgInvalidInput, fieldErrs), nil
	}

	settings := s.config.EmailSettings()
	if !settings.IsConfigured() {
		return s.acceptWithoutEmail(ctx, data, client, settings), nil
	}

	sender, err := s.senders.Sender(settings)
	if err != nil {
		logger.Error("Failed to create email sender",
			zap.Error(err),
			zap.String("provider", settings.ProviderName()))
		return failure(models.OutcomeEmailFailed, ErrMsgSendFailed, err.Error()), nil
	}

	emailData := email.ContactEmailData{
		SenderName:  data.Name,
		SenderEmail: data.Email,
		Subject:     data.Subject,
		Message:     data.Message,
		SubmittedAt: s.now(),
	}

	outcome, err := s.sendOperatorNotification(ctx, sender, settings, emailData)
	if err != nil {
		return nil, err
	}
	if outcome.Failed() {
		logger.Error("Failed to send contact notification email",
			append(logger.TraceFields(ctx),
				zap.String("provider", settings.ProviderName()),
				zap.String("error", outcome.Error),
				zap.String("client_ip", client.IP))...)
		return failure(models.OutcomeEmailFailed, ErrMsgSendFailed, outcome.Error), nil
	}

	s.sendConfirmation(ctx, sender, settings, emailData)

	logger.Info("Contact form submitted",
		append(logger.TraceFields(ctx),
			zap.String("email_id", outcome.ID),
			zap.String("subject", data.Subject),
			zap.String("client_ip", client.IP))...)

	return &models.ContactResponse{
		Success: true,
		Message: MsgEmailSent,
		ID:      outcome.ID,
		Outcome: models.OutcomeSent,
	}, nil
}

// acceptWithoutEmail logs a submission that cannot be emailed and still reports success
func (s *ContactService) acceptWithoutEmail(ctx context.Context, data *models.ContactSubmission, client models.ClientContext, settings config.EmailSettings) *models.ContactResponse {
	fields := append(logger.TraceFields(ctx),
		zap.String("provider", settings.ProviderName()),
		zap.String("name", data.Name),
		zap.String("email", data.Email),
		zap.String("subject", data.Subject),
		zap.String("message", data.Message),
		zap.String("client_ip", client.IP),
		zap.String("user_agent", client.UserAgent))

	if s.config.IsProduction() {
		logger.Error("CRITICAL: email provider is not configured in production, contact submission was not emailed", fields...)
		return &models.ContactResponse{
			Success: true,
			Message: MsgReceivedProd,
			ID:      "prod-" + uuid.NewString(),
			Outcome: models.OutcomeAcceptedProd,
		}
	}

	logger.Info("Email provider not configured, contact submission logged only", fields...)
	return &models.ContactResponse{
		Success: true,
		Message: MsgReceivedDev,
		ID:      "dev-" + uuid.NewString(),
		Outcome: models.OutcomeAcceptedDev,
	}
}

func (s *ContactService) sendOperatorNotification(ctx context.Context, sender email.Sender, settings config.EmailSettings, data email.ContactEmailData) (models.EmailDispatchOutcome, error) {
	htmlBody, textBody, err := email.RenderOperatorNotification(data)
	if err != nil {
		return models.EmailDispatchOutcome{}, apperrors.InternalError("render operator notification", err)
	}

	ctx, cancel := context.WithTimeout(mailer.WithKind(ctx, mailer.KindOperator), s.sendTimeout())
	defer cancel()

	result, err := sender.Send(ctx, &email.Message{
		From:    settings.From,
		To:      []string{settings.To},
		ReplyTo: data.SenderEmail,
		Subject: email.OperatorSubject(data.Subject),
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return models.EmailDispatchOutcome{Error: err.Error()}, nil
	}
	return models.EmailDispatchOutcome{ID: result.ID}, nil
}

// sendConfirmation acknowledges the submission to the sender. Delivery is
// best effort and at most once: failures and panics are logged and never
// change the response.
func (s *ContactService) sendConfirmation(ctx context.Context, sender email.Sender, settings config.EmailSettings, data email.ContactEmailData) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while sending contact confirmation email", zap.Any("panic", r))
		}
	}()

	htmlBody, textBody, err := email.RenderConfirmation(data)
	if err != nil {
		logger.LogError(apperrors.InternalError("render confirmation", err), "Failed to render contact confirmation email")
		return
	}

	// The confirmation must not be cut short by the caller going away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(mailer.WithKind(ctx, mailer.KindConfirmation)), s.sendTimeout())
	defer cancel()

	if _, err := sender.Send(ctx, &email.Message{
		From:    settings.From,
		To:      []string{data.SenderEmail},
		Subject: email.ConfirmationSubject,
		HTML:    htmlBody,
		Text:    textBody,
	}); err != nil {
		logger.Warn("Failed to send contact confirmation email",
			append(logger.TraceFields(ctx),
				zap.Error(err),
				zap.String("provider", settings.ProviderName()))...)
	}
}

func (s *ContactService) sendTimeout() time.Duration {
	if s.config.Contact.SendTimeoutSeconds > 0 {
		return time.Duration(s.config.Contact.SendTimeoutSeconds) * time.Second
	}
	return defaultSendTimeout
}

func failure(outcome models.Outcome, message string, details any) *models.ContactResponse {
	return &models.ContactResponse{
		Success: false,
		Error:   message,
		Details: details,
		Outcome: outcome,
	}
}
