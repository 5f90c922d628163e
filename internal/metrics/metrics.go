// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Scan run results.
const (
	RunComplete = "complete"
	RunPartial  = "partial"
	RunFailed   = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Notification scan metrics
	IncScanRun(result string)
	IncScanOutcome(status string) // status: sent, skipped, nothing_due, failed
	ObserveScanDuration(duration time.Duration)
	IncEmailSend(status string) // status: "success" or "failed"

	// Dashboard metrics
	IncSummaryCacheHit()
	IncSummaryCacheMiss()
	IncSkippedRecord(reason string)

	// Record management metrics
	IncRecordWrite(kind, op string) // kind: subscription, card, preference
}
