package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.JobStatus("processing")
	m.JobStatus("success")
	m.JobStatus("success")
	m.QueueError("deserialize")
	m.Progress(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueErrors.WithLabelValues("deserialize")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.EncodeProgress))

	m.JobFinished(90 * time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EncodeProgress))
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

func TestMetricsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
