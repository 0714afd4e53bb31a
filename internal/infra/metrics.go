package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksProcessed atomic.Uint64
	messagesSent   atomic.Uint64
	sendsSkipped   atomic.Uint64
	storeErrors    atomic.Uint64

	// Gauges
	userConnections     atomic.Int32
	positionConnections atomic.Int32
	trackingConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one processed price update and the sends it produced.
func (m *Metrics) RecordTick(sent int) {
	m.ticksProcessed.Add(1)
	if sent > 0 {
		m.messagesSent.Add(uint64(sent))
	}
}

// RecordSkip records a send skipped because a socket was not writable.
func (m *Metrics) RecordSkip() {
	m.sendsSkipped.Add(1)
}

// RecordStoreError records a failed position/fund store query.
func (m *Metrics) RecordStoreError() {
	m.storeErrors.Add(1)
}

// AddUserConnections adjusts the user-socket gauge by delta.
func (m *Metrics) AddUserConnections(delta int32) {
	m.userConnections.Add(delta)
}

// AddPositionConnections adjusts the position-socket gauge by delta.
func (m *Metrics) AddPositionConnections(delta int32) {
	m.positionConnections.Add(delta)
}

// AddTrackingConnections adjusts the order-tracking gauge by delta.
func (m *Metrics) AddTrackingConnections(delta int32) {
	m.trackingConnections.Add(delta)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksProcessed      uint64    `json:"ticksProcessed"`
	MessagesSent        uint64    `json:"messagesSent"`
	SendsSkipped        uint64    `json:"sendsSkipped"`
	StoreErrors         uint64    `json:"storeErrors"`
	UserConnections     int32     `json:"userConnections"`
	PositionConnections int32     `json:"positionConnections"`
	TrackingConnections int32     `json:"trackingConnections"`
	Timestamp           time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TicksProcessed:      m.ticksProcessed.Load(),
		MessagesSent:        m.messagesSent.Load(),
		SendsSkipped:        m.sendsSkipped.Load(),
		StoreErrors:         m.storeErrors.Load(),
		UserConnections:     m.userConnections.Load(),
		PositionConnections: m.positionConnections.Load(),
		TrackingConnections: m.trackingConnections.Load(),
		Timestamp:           time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksProcessed.Store(0)
	m.messagesSent.Store(0)
	m.sendsSkipped.Store(0)
	m.storeErrors.Store(0)
	m.userConnections.Store(0)
	m.positionConnections.Store(0)
	m.trackingConnections.Store(0)
}
