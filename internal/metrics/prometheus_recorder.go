package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagebaker"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	bakeDuration  prom.Histogram
	pageDuration  prom.Histogram
	pageResults   *prom.CounterVec
	bakedFiles    prom.Counter
	copiedAssets  prom.Counter
	bakeOutcome   *prom.CounterVec
	brokenLinks   prom.Gauge
	lastBakeEpoch prom.Gauge
}

// NewPrometheusRecorder constructs the bake metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.bakeDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "bake_duration_seconds",
		Help:      "Duration of a full site bake",
		Buckets:   prom.DefBuckets,
	})
	pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "page_bake_duration_seconds",
		Help:      "Duration of baking one page including its sub-pages",
		Buckets:   prom.ExponentialBuckets(0.001, 2, 12),
	})
	pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "page_results_total",
		Help:      "Page bake results by outcome",
	}, []string{"result"})
	pr.bakedFiles = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "baked_files_total",
		Help:      "Output files written, one per page number",
	})
	pr.copiedAssets = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "copied_assets_total",
		Help:      "Asset files copied next to baked pages",
	})
	pr.bakeOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "bake_outcomes_total",
		Help:      "Site bake outcomes by final status",
	}, []string{"outcome"})
	pr.brokenLinks = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "broken_links",
		Help:      "Broken internal links found by the last link check",
	})
	pr.lastBakeEpoch = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_bake_timestamp_seconds",
		Help:      "Unix time the last site bake finished",
	})
	reg.MustRegister(pr.bakeDuration, pr.pageDuration, pr.pageResults, pr.bakedFiles,
		pr.copiedAssets, pr.bakeOutcome, pr.brokenLinks, pr.lastBakeEpoch)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveBakeDuration(d time.Duration) {
	p.bakeDuration.Observe(d.Seconds())
	p.lastBakeEpoch.SetToCurrentTime()
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddBakedFiles(n int) {
	if n > 0 {
		p.bakedFiles.Add(float64(n))
	}
}

func (p *PrometheusRecorder) AddCopiedAssets(n int) {
	if n > 0 {
		p.copiedAssets.Add(float64(n))
	}
}

func (p *PrometheusRecorder) IncBakeOutcome(outcome string) {
	p.bakeOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetBrokenLinks(n int) {
	p.brokenLinks.Set(float64(n))
}
