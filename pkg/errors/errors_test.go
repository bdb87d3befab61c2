package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorsMatchSentinels(t *testing.T) {
	assert.True(t, Is(InvalidInputError("email", "bad shape"), ErrInvalidInput))
	assert.True(t, Is(NotConfiguredError("RESEND_API_KEY"), ErrNotConfigured))
	assert.True(t, Is(ProviderRejectedError("resend", "domain not verified"), ErrProviderRejected))
	assert.True(t, Is(InternalError("template", nil), ErrInternal))

	renderErr := errors.New("template: operator:1: unexpected EOF")
	internal := InternalError("render operator notification", renderErr)
	assert.True(t, Is(internal, ErrInternal))
	assert.True(t, Is(internal, renderErr))

	cause := errors.New("connection refused")
	err := ProviderUnavailableError("smtp", cause)
	assert.True(t, Is(err, ErrProviderUnavailable))
	assert.True(t, Is(err, cause))
}

func TestProviderRejectedError_KeepsProviderMessage(t *testing.T) {
	err := ProviderRejectedError("resend", "The gmail.com domain is not verified")
	assert.Equal(t, "resend: The gmail.com domain is not verified: provider rejected request", err.Error())
}
