package mailer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/circuitbreaker"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email/resend"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email/smtprelay"
	apperrors "github.com/0xobelisk/dubhe-website-sub001/pkg/errors"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/tracing"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Email kinds used for metrics and spans
const (
	KindOperator     = "operator"
	KindConfirmation = "confirmation"
)

type kindKey struct{}

// WithKind tags ctx with the kind of email about to be sent.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

func kindFrom(ctx context.Context) string {
	if kind, ok := ctx.Value(kindKey{}).(string); ok {
		return kind
	}
	return "unknown"
}

// Factory builds a Sender from the email settings of the current request.
// Breakers live on the factory, so senders built per request share them.
type Factory struct {
	httpClient    httpclient.Client
	resendBaseURL string
	breakers      *circuitbreaker.Registry
}

// Option configures a Factory
type Option func(*Factory)

// WithResendBaseURL points the Resend client at another API root.
func WithResendBaseURL(baseURL string) Option {
	return func(f *Factory) { f.resendBaseURL = baseURL }
}

// WithBreakers replaces the breaker registry.
func WithBreakers(breakers *circuitbreaker.Registry) Option {
	return func(f *Factory) { f.breakers = breakers }
}

// NewFactory creates a sender factory
func NewFactory(httpClient httpclient.Client, opts ...Option) *Factory {
	f := &Factory{
		httpClient: httpClient,
		breakers:   circuitbreaker.NewRegistry(breakerConfig),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// breakerConfig counts only transport failures. A provider refusing one
// message says nothing about its availability.
func breakerConfig(name string) circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig(name)
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || apperrors.Is(err, apperrors.ErrProviderRejected) || apperrors.Is(err, apperrors.ErrInvalidInput)
	}
	return cfg
}

// Sender returns a sender for settings, or an ErrNotConfigured error when the
// settings do not describe a usable provider.
func (f *Factory) Sender(settings config.EmailSettings) (email.Sender, error) {
	if !settings.IsConfigured() {
		return nil, apperrors.NotConfiguredError("email provider " + settings.ProviderName())
	}

	var next email.Sender
	switch provider := settings.ProviderName(); provider {
	case config.ProviderResend:
		next = resend.NewClient(settings.APIKey, f.resendBaseURL, f.httpClient)
	case config.ProviderSMTP:
		var signer *smtprelay.Signer
		if settings.DKIMSelector != "" {
			s, err := smtprelay.NewSigner(settings.DKIMDomain, settings.DKIMSelector, settings.DKIMPrivateKey)
			if err != nil {
				return nil, fmt.Errorf("failed to configure DKIM signing: %w", err)
			}
			signer = s
		}
		port := 0
		if settings.SMTPPort != "" {
			p, err := strconv.Atoi(settings.SMTPPort)
			if err != nil {
				return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", settings.SMTPPort, err)
			}
			port = p
		}
		next = smtprelay.NewSender(smtprelay.Config{
			Host:     settings.SMTPHost,
			Port:     port,
			Username: settings.SMTPUsername,
			Password: settings.SMTPPassword,
		}, signer)
	default:
		return nil, apperrors.NotConfiguredError("email provider " + provider)
	}

	provider := settings.ProviderName()
	return &instrumentedSender{
		provider: provider,
		next:     next,
		breaker:  f.breakers.Get(provider),
	}, nil
}

// instrumentedSender adds the breaker, metrics, a span and a log line to each send
type instrumentedSender struct {
	provider string
	next     email.Sender
	breaker  *gobreaker.CircuitBreaker
}

func (s *instrumentedSender) Send(ctx context.Context, msg *email.Message) (*email.SendResult, error) {
	kind := kindFrom(ctx)
	ctx, span := tracing.StartSpan(ctx, "email.send",
		attribute.String("email.provider", s.provider),
		attribute.String("email.kind", kind))
	defer span.End()

	start := time.Now()
	result, err := circuitbreaker.Execute(s.breaker, func() (*email.SendResult, error) {
		return s.next.Send(ctx, msg)
	})
	duration := metrics.MeasureDuration(start)

	status := "success"
	switch {
	case err != nil && circuitbreaker.IsRejected(err):
		status = "circuit_open"
		err = apperrors.ProviderUnavailableError(s.provider, err)
	case err != nil:
		status = "error"
	}

	metrics.EmailSendDuration.WithLabelValues(s.provider, kind, status).Observe(duration)
	metrics.EmailSendTotal.WithLabelValues(s.provider, kind, status).Inc()

	if err != nil {
		tracing.RecordError(span, err)
		logger.LogAPICall(s.provider, "send_"+kind, status, duration, zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.String("email.id", result.ID))
	logger.LogAPICall(s.provider, "send_"+kind, status, duration, zap.String("email_id", result.ID))
	return result, nil
}
