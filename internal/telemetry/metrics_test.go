package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.NotNil(t, m.WritesTotal)
	require.NotNil(t, m.ReadAttempts)
	require.NotNil(t, m.ConsistencyTimeoutsTotal)
	require.Same(t, m, GetMetrics())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	require.Equal(t, "orgstore", cfg.ServiceName)
	require.Equal(t, 10*time.Second, cfg.MetricInterval)
	require.Equal(t, 1.0, cfg.SampleRatio)
}
