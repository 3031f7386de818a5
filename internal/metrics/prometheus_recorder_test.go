package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prom.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveBakeDuration(500 * time.Millisecond)
	pr.ObservePageDuration(3 * time.Millisecond)
	pr.ObservePageDuration(4 * time.Millisecond)
	pr.IncPageResult(ResultSuccess)
	pr.IncPageResult(ResultSuccess)
	pr.IncPageResult(ResultFailed)
	pr.AddBakedFiles(4)
	pr.AddBakedFiles(0)
	pr.AddCopiedAssets(2)
	pr.IncBakeOutcome("success")
	pr.SetBrokenLinks(3)

	assert.Equal(t, 1.0, counterValue(t, reg, "pagebaker_bake_duration_seconds", nil))
	assert.Equal(t, 2.0, counterValue(t, reg, "pagebaker_page_bake_duration_seconds", nil))
	assert.Equal(t, 2.0, counterValue(t, reg, "pagebaker_page_results_total", map[string]string{"result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "pagebaker_page_results_total", map[string]string{"result": "failed"}))
	assert.Equal(t, 4.0, counterValue(t, reg, "pagebaker_baked_files_total", nil))
	assert.Equal(t, 2.0, counterValue(t, reg, "pagebaker_copied_assets_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "pagebaker_bake_outcomes_total", map[string]string{"outcome": "success"}))
	assert.Equal(t, 3.0, counterValue(t, reg, "pagebaker_broken_links", nil))
	assert.Positive(t, counterValue(t, reg, "pagebaker_last_bake_timestamp_seconds", nil))
	assert.Same(t, reg, pr.Registry())
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.AddBakedFiles(7)

	path := filepath.Join(t.TempDir(), "pagebaker.prom")
	require.NoError(t, WriteTextfile(pr.Registry(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pagebaker_baked_files_total 7")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	err := WriteTextfile(pr.Registry(), filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics textfile")
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBakeOutcome("failed")

	srv := httptest.NewServer(HTTPHandler(pr.Registry()))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pagebaker_bake_outcomes_total{outcome="failed"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveBakeDuration(time.Second)
		r.IncPageResult(ResultCanceled)
		r.AddBakedFiles(1)
		r.SetBrokenLinks(0)
	})
}
