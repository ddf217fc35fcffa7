package metrics

import "time"

// Recorder defines observability hooks for dataset operations. Implementations
// may forward to Prometheus, OpenTelemetry, etc. Components default to
// NoopRecorder so collection never requires nil checks and costs nothing when
// metrics are not configured.
type Recorder interface {
	// ObserveOperation records one completed engine operation
	// (op: put|update|delete|get|search|query).
	ObserveOperation(op string, d time.Duration)

	// IncOperationFailure records one failed engine operation.
	IncOperationFailure(op string)

	// SetRecordsLive sets the current number of live records.
	SetRecordsLive(n int)

	// SetJournalBytes sets the journal's storage footprint.
	SetJournalBytes(n int64)

	// ObserveCompaction records one completed compaction.
	ObserveCompaction(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperation(string, time.Duration) {}
func (NoopRecorder) IncOperationFailure(string)             {}
func (NoopRecorder) SetRecordsLive(int)                     {}
func (NoopRecorder) SetJournalBytes(int64)                  {}
func (NoopRecorder) ObserveCompaction(time.Duration)        {}
