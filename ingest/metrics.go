package ingest

import (
	"sync"
	"time"
)

// Metrics tracks live counters for an ingestion run.
type Metrics struct {
	mu                sync.RWMutex
	FilesAttempted    int64
	RecordsLoaded     int64
	RecordsRejected   int64
	LoadFailures      int64
	DeliveriesWritten int64
	InningsSkipped    int64
	LastError         string
	LastErrorTime     time.Time
	StartTime         time.Time
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RecordAttempt increments the attempted-file count.
func (m *Metrics) RecordAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesAttempted++
}

// RecordLoaded records one committed record and its delivery rows.
func (m *Metrics) RecordLoaded(deliveries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsLoaded++
	m.DeliveriesWritten += int64(deliveries)
}

// RecordRejected records a record rejected by validation.
func (m *Metrics) RecordRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsRejected++
}

// RecordSkippedInnings records innings dropped during validation.
func (m *Metrics) RecordSkippedInnings(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InningsSkipped += int64(n)
}

// RecordFailure records a load failure affecting n records.
func (m *Metrics) RecordFailure(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadFailures += int64(n)
	m.LastError = err.Error()
	m.LastErrorTime = time.Now()
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		FilesAttempted:    m.FilesAttempted,
		RecordsLoaded:     m.RecordsLoaded,
		RecordsRejected:   m.RecordsRejected,
		LoadFailures:      m.LoadFailures,
		DeliveriesWritten: m.DeliveriesWritten,
		InningsSkipped:    m.InningsSkipped,
		LastError:         m.LastError,
		LastErrorTime:     m.LastErrorTime,
		StartTime:         m.StartTime,
	}
}
