package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// The methods below are no-ops.

func (n *NoopRecorder) IncScanRun(result string) {}
func (n *NoopRecorder) IncScanOutcome(status string) {}
func (n *NoopRecorder) ObserveScanDuration(duration time.Duration) {}
func (n *NoopRecorder) IncEmailSend(status string) {}
func (n *NoopRecorder) IncSummaryCacheHit() {}
func (n *NoopRecorder) IncSummaryCacheMiss() {}
func (n *NoopRecorder) IncSkippedRecord(reason string) {}
func (n *NoopRecorder) IncRecordWrite(kind, op string) {}
