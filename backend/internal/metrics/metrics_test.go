package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestRecordGraphBuild(t *testing.T) {
	counter := GraphBuilds.WithLabelValues("full", "success")
	before := counterValue(t, counter)

	RecordGraphBuild("full", "success", 15*time.Millisecond)

	assert.Equal(t, before+1, counterValue(t, counter))
}

func TestRecordGraphSize(t *testing.T) {
	RecordGraphSize(12, 30)
	assert.Equal(t, 12.0, gaugeValue(t, GraphNodes))
	assert.Equal(t, 30.0, gaugeValue(t, GraphEdges))
}

func TestRecordRecommendation(t *testing.T) {
	counter := Recommendations.WithLabelValues("personalized", "popularity-fallback")
	before := counterValue(t, counter)

	RecordRecommendation("personalized", "popularity-fallback", 0)

	assert.Equal(t, before+1, counterValue(t, counter))
}
