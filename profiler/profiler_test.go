package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_Operations(t *testing.T) {
	p := New(ProfilingOptions{MaxSamples: 3})

	for _, d := range []time.Duration{4, 1, 2, 3} {
		p.RecordOperation("detect", d*time.Millisecond)
	}
	p.RecordOperation("annotate", time.Millisecond)

	ops := p.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "annotate", ops[0].Name)

	detect := ops[1]
	assert.Equal(t, "detect", detect.Name)
	assert.Equal(t, int64(4), detect.Count)
	// Only the last three samples (1, 2, 3ms) are averaged.
	assert.Equal(t, 2*time.Millisecond, detect.Avg)
	assert.Equal(t, time.Millisecond, detect.Min)
	assert.Equal(t, 4*time.Millisecond, detect.Max)
}

func TestProfiler_StartOperation(t *testing.T) {
	p := New(ProfilingOptions{})

	stop := p.StartOperation("write")
	stop()

	ops := p.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, int64(1), ops[0].Count)
	assert.GreaterOrEqual(t, ops[0].Avg, time.Duration(0))
}

func TestProfiler_Metrics(t *testing.T) {
	p := New(ProfilingOptions{})

	p.RecordMetric("regions", 2)
	p.RecordMetric("regions", 0)
	p.RecordMetric("regions", 4)

	metrics := p.Metrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, 3, metrics[0].Samples)
	assert.InDelta(t, 2.0, metrics[0].Avg, 1e-9)
	assert.Equal(t, 0.0, metrics[0].Min)
	assert.Equal(t, 4.0, metrics[0].Max)
}

func TestProfiler_Report(t *testing.T) {
	p := New(ProfilingOptions{})
	p.RecordOperation("preprocess", 3*time.Millisecond)
	p.RecordMetric("regions", 1)

	var buf bytes.Buffer
	p.Report(slog.New(slog.NewTextHandler(&buf, nil)))

	out := buf.String()
	assert.Contains(t, out, "msg=profile")
	assert.Contains(t, out, "name=preprocess")
	assert.Contains(t, out, "name=regions")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
