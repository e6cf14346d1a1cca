package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/config"
	coremon "github.com/kilianp07/tripstats/core/monitoring"
)

func TestEmptyDSNIsNop(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapture(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@sentry.example.com/1", Environment: "test"})
	require.NoError(t, err)
	assert.IsType(t, &sentryMonitor{}, m)

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("boom"), map[string]string{"module": "worker"})
	m.Flush(10 * time.Millisecond)
}

func TestSentryMonitorRecoverRepanics(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@sentry.example.com/1"})
	require.NoError(t, err)
	assert.PanicsWithValue(t, "boom", func() {
		defer m.Recover()
		panic("boom")
	})
}
