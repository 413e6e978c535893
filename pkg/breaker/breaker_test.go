package breaker

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilBreakerCallsThrough(t *testing.T) {
	var b *Breaker
	v, err := Do(b, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := New("test-open", Config{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.5,
	})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := Do(b, func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	_, err := Do(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerReturnsValue(t *testing.T) {
	b := New("test-value", DefaultConfig())
	got, err := Do(b, func() ([]string, error) { return []string{"a"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}
