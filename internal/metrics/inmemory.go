package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ScanRuns            map[string]uint64
	ScanOutcomes        map[string]uint64
	ScanDurationCount   uint64
	ScanDurationTotalNs int64
	EmailsSent          uint64
	EmailsFailed        uint64
	SummaryCacheHits    uint64
	SummaryCacheMisses  uint64
	SkippedRecords      map[string]uint64
	RecordWrites        map[string]uint64 // keyed by "kind/op"
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	scanDurationCount   uint64
	scanDurationTotalNs int64
	emailsSent          uint64
	emailsFailed        uint64
	summaryCacheHits    uint64
	summaryCacheMisses  uint64

	mu           sync.Mutex
	scanRuns     map[string]uint64
	scanOutcomes map[string]uint64
	skipped      map[string]uint64
	writes       map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		scanRuns:     make(map[string]uint64),
		scanOutcomes: make(map[string]uint64),
		skipped:      make(map[string]uint64),
		writes:       make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		ScanRuns:            copyCounts(m.scanRuns),
		ScanOutcomes:        copyCounts(m.scanOutcomes),
		ScanDurationCount:   atomic.LoadUint64(&m.scanDurationCount),
		ScanDurationTotalNs: atomic.LoadInt64(&m.scanDurationTotalNs),
		EmailsSent:          atomic.LoadUint64(&m.emailsSent),
		EmailsFailed:        atomic.LoadUint64(&m.emailsFailed),
		SummaryCacheHits:    atomic.LoadUint64(&m.summaryCacheHits),
		SummaryCacheMisses:  atomic.LoadUint64(&m.summaryCacheMisses),
		SkippedRecords:      copyCounts(m.skipped),
		RecordWrites:        copyCounts(m.writes),
	}
}

// IncScanRun counts a finished scan by result.
func (m *InMemoryRecorder) IncScanRun(result string) {
	m.inc(m.scanRuns, result)
}

// IncScanOutcome counts a per-user scan outcome.
func (m *InMemoryRecorder) IncScanOutcome(status string) {
	m.inc(m.scanOutcomes, status)
}

// ObserveScanDuration records scan duration.
func (m *InMemoryRecorder) ObserveScanDuration(duration time.Duration) {
	atomic.AddUint64(&m.scanDurationCount, 1)
	atomic.AddInt64(&m.scanDurationTotalNs, duration.Nanoseconds())
}

// IncEmailSend counts a send attempt.
func (m *InMemoryRecorder) IncEmailSend(status string) {
	if status == "success" {
		atomic.AddUint64(&m.emailsSent, 1)
		return
	}
	atomic.AddUint64(&m.emailsFailed, 1)
}

// IncSummaryCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncSummaryCacheHit() {
	atomic.AddUint64(&m.summaryCacheHits, 1)
}

// IncSummaryCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncSummaryCacheMiss() {
	atomic.AddUint64(&m.summaryCacheMisses, 1)
}

// IncSkippedRecord counts a record left out of a computation.
func (m *InMemoryRecorder) IncSkippedRecord(reason string) {
	m.inc(m.skipped, reason)
}

// IncRecordWrite counts a create, update or delete.
func (m *InMemoryRecorder) IncRecordWrite(kind, op string) {
	m.inc(m.writes, kind+"/"+op)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
