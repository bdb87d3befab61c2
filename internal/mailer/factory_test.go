package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/email"
	apperrors "github.com/0xobelisk/dubhe-website-sub001/pkg/errors"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resendSettings() config.EmailSettings {
	return config.EmailSettings{
		Provider: config.ProviderResend,
		APIKey:   "re_test-api-key",
		From:     "Dubhe Website <noreply@obelisk.build>",
		To:       "contact@obelisk.build",
	}
}

func message() *email.Message {
	return &email.Message{
		From:    "Dubhe Website <noreply@obelisk.build>",
		To:      []string{"contact@obelisk.build"},
		Subject: "Contact Form: general",
		Text:    "hello",
	}
}

func TestFactory_Sender_NotConfigured(t *testing.T) {
	f := NewFactory(httpclient.NewClient(time.Second, nil))

	settings := resendSettings()
	settings.APIKey = "re_placeholder"

	sender, err := f.Sender(settings)
	assert.Nil(t, sender)
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestFactory_Sender_SMTP(t *testing.T) {
	f := NewFactory(httpclient.NewClient(time.Second, nil))

	sender, err := f.Sender(config.EmailSettings{
		Provider:     config.ProviderSMTP,
		From:         "noreply@obelisk.build",
		To:           "contact@obelisk.build",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUsername: "user",
		SMTPPassword: "pass",
	})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderSMTP, sender.(*instrumentedSender).provider)
}

func TestFactory_Sender_SMTPBadPort(t *testing.T) {
	f := NewFactory(httpclient.NewClient(time.Second, nil))

	_, err := f.Sender(config.EmailSettings{
		Provider:     config.ProviderSMTP,
		From:         "noreply@obelisk.build",
		To:           "contact@obelisk.build",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "submission",
		SMTPUsername: "user",
		SMTPPassword: "pass",
	})
	assert.ErrorContains(t, err, "invalid SMTP_PORT")
}

func TestInstrumentedSender_RecordsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"email-1"}`)
	}))
	defer srv.Close()

	f := NewFactory(httpclient.NewClient(time.Second, nil), WithResendBaseURL(srv.URL))
	sender, err := f.Sender(resendSettings())
	require.NoError(t, err)

	counter := metrics.EmailSendTotal.WithLabelValues(config.ProviderResend, KindOperator, "success")
	before := testutil.ToFloat64(counter)

	result, err := sender.Send(WithKind(context.Background(), KindOperator), message())
	require.NoError(t, err)
	assert.Equal(t, "email-1", result.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestInstrumentedSender_BreakerIgnoresRejections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"Invalid from address"}`)
	}))
	defer srv.Close()

	f := NewFactory(httpclient.NewClient(time.Second, nil), WithResendBaseURL(srv.URL))

	for i := 0; i < 8; i++ {
		sender, err := f.Sender(resendSettings())
		require.NoError(t, err)

		_, err = sender.Send(context.Background(), message())
		assert.ErrorIs(t, err, apperrors.ErrProviderRejected)
	}
	assert.Equal(t, int32(8), calls.Load())
}

func TestInstrumentedSender_BreakerOpensOnTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewFactory(httpclient.NewClient(time.Second, nil), WithResendBaseURL(url))

	for i := 0; i < 5; i++ {
		sender, err := f.Sender(resendSettings())
		require.NoError(t, err)
		_, err = sender.Send(context.Background(), message())
		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	}

	counter := metrics.EmailSendTotal.WithLabelValues(config.ProviderResend, KindConfirmation, "circuit_open")
	before := testutil.ToFloat64(counter)

	sender, err := f.Sender(resendSettings())
	require.NoError(t, err)
	_, err = sender.Send(WithKind(context.Background(), KindConfirmation), message())

	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker 'resend' is open")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
