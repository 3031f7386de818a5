package metrics

import "time"

// ResultLabel enumerates page bake result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for site and page bakes.
type Recorder interface {
	ObserveBakeDuration(d time.Duration)
	ObservePageDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	AddBakedFiles(n int)
	AddCopiedAssets(n int)
	IncBakeOutcome(outcome string) // outcome: success|failed|canceled
	SetBrokenLinks(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBakeDuration(time.Duration) {}
func (NoopRecorder) ObservePageDuration(time.Duration) {}
func (NoopRecorder) IncPageResult(ResultLabel)         {}
func (NoopRecorder) AddBakedFiles(int)                 {}
func (NoopRecorder) AddCopiedAssets(int)               {}
func (NoopRecorder) IncBakeOutcome(string)             {}
func (NoopRecorder) SetBrokenLinks(int)                {}
