package metrics

import (
	"time"

	"github.com/kilianp07/tripstats/core/model"
)

// ComputeEvent describes one finished computation.
type ComputeEvent struct {
	RequestID  string
	Key        string
	Input      int // trip records received
	Dropped    int // records rejected by validation
	Active     int
	Stationary int
	Hybrid     bool
	Empty      bool // no valid trip, nil result
	TotalKm    float64
	TotalKWh   float64
	Duration   time.Duration
	Err        string
	Time       time.Time
}

// MetricsSink records compute events for observability purposes.
type MetricsSink interface {
	RecordCompute(ev ComputeEvent) error
}

// MonthlyEvent carries the monthly series of one computation.
type MonthlyEvent struct {
	Key     string
	Buckets []model.MonthlyBucket
	Time    time.Time
}

// MonthlyRecorder records monthly series.
type MonthlyRecorder interface {
	RecordMonthly(ev MonthlyEvent) error
}

// SoHEvent carries a battery health estimate.
type SoHEvent struct {
	Key    string
	Result model.SoHResult
	Time   time.Time
}

// SoHRecorder records battery health estimates.
type SoHRecorder interface {
	RecordSoH(ev SoHEvent) error
}

// JobEvent records a job lifecycle transition in the worker.
type JobEvent struct {
	JobID string
	Key   string
	From  string
	To    string
	Time  time.Time
}

// JobRecorder records job transitions.
type JobRecorder interface {
	RecordJob(ev JobEvent) error
}

// QueueDepthRecorder records the number of pending jobs.
type QueueDepthRecorder interface {
	RecordQueueDepth(depth int) error
}

// ResponseEvent describes a response leaving the worker pool.
type ResponseEvent struct {
	RequestID string
	Key       string
	Elapsed   time.Duration
	Err       string
	Time      time.Time
}

// ResponseRecorder records published responses.
type ResponseRecorder interface {
	RecordResponse(ev ResponseEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCompute(ComputeEvent) error   { return nil }
func (NopSink) RecordMonthly(MonthlyEvent) error   { return nil }
func (NopSink) RecordSoH(SoHEvent) error           { return nil }
func (NopSink) RecordJob(JobEvent) error           { return nil }
func (NopSink) RecordQueueDepth(int) error         { return nil }
func (NopSink) RecordResponse(ResponseEvent) error { return nil }
