// Package metrics provides an observability framework for dataset metrics.
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods that inline to nothing at compile time.
//
// Components receive a Recorder through dependency injection:
//
//	ds, err := series.Open[record.Dynamic](ctx, j, series.WithRecorder(recorder))
//
// To enable metrics, swap NoopRecorder for PrometheusRecorder:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//
// This approach allows zero overhead when metrics are disabled, activation
// without code changes, and clean testing with a mock recorder.
package metrics
