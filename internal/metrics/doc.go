// Package metrics records bake metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	baker := site.NewBaker(env, renderer, site.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are configured, PrometheusRecorder registers its collectors on a
// dedicated registry. The registry can be written to a node-exporter textfile
// after a one-shot bake (WriteTextfile) or served over HTTP while watching
// (HTTPHandler).
package metrics
