package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestAveragerReadsZeroWithNoObservations(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	avg := m.NewAverager("test_metric", "test values")
	require.Equal(t, 0.0, avg.Read())
}

func TestAveragerComputesMean(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	avg := m.NewAverager("test_metric_2", "test values")
	avg.Observe(10)
	avg.Observe(20)
	require.Equal(t, 15.0, avg.Read())
}

func TestNewMetricsWithNilRegistryIsSafe(t *testing.T) {
	m := NewMetrics(nil)
	avg := m.NewAverager("test_metric_3", "test values")
	avg.Observe(5)
	require.Equal(t, 5.0, avg.Read())
}
