package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_ReturnsTypedResult(t *testing.T) {
	cb := NewCircuitBreaker(DefaultConfig("test"))

	id, err := Execute(cb, func() (string, error) { return "email-id", nil })
	require.NoError(t, err)
	assert.Equal(t, "email-id", id)
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("resend")
	cfg.Timeout = time.Hour
	cb := NewCircuitBreaker(cfg)

	boom := errors.New("provider down")
	for i := 0; i < 5; i++ {
		_, err := Execute(cb, func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, IsRejected(err))
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := Execute(cb, func() (string, error) {
		called = true
		return "", nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, IsRejected(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker 'resend' is open")
}

func TestRegistry_SharesBreakerPerName(t *testing.T) {
	reg := NewRegistry(nil)

	a := reg.Get("resend")
	b := reg.Get("resend")
	c := reg.Get("smtp")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "smtp", c.Name())
}
