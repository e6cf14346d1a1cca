package analytics

import (
	"time"

	"github.com/kilianp07/tripstats/core/logger"
	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
)

// Input is one computation request.
type Input struct {
	RequestID string
	Key       string
	Trips     []*model.Trip
	Settings  model.Settings
	Charges   []model.Charge
	Locale    string
}

// Engine runs computations and reports them to a logger and a metrics sink.
// The zero value is usable.
type Engine struct {
	Logger   logger.Logger
	Sink     metrics.MetricsSink
	Location *time.Location
	Now      func() time.Time
	// Defaults fill settings fields left empty by a request.
	Defaults model.Settings
}

// NewEngine returns an Engine reporting to log and sink.
func NewEngine(log logger.Logger, sink metrics.MetricsSink) *Engine {
	return &Engine{Logger: log, Sink: sink}
}

func (e *Engine) log() logger.Logger {
	if e.Logger == nil {
		return logger.Nop{}
	}
	return e.Logger
}

func (e *Engine) sink() metrics.MetricsSink {
	if e.Sink == nil {
		return metrics.NopSink{}
	}
	return e.Sink
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run computes the result for in. A nil result means no trip was valid.
func (e *Engine) Run(in Input) (*model.Result, Stats) {
	start := time.Now()
	settings := in.Settings.WithDefaults(e.Defaults)
	res, st := ComputeWith(Options{Location: e.Location, Now: e.Now}, in.Trips, settings, in.Charges, in.Locale)
	elapsed := time.Since(start)

	l := e.log()
	if st.Dropped > 0 {
		l.Debugw("dropped malformed trips", map[string]any{
			"request_id": in.RequestID,
			"dropped":    st.Dropped,
			"input":      st.Input,
		})
	}

	ev := metrics.ComputeEvent{
		RequestID:  in.RequestID,
		Key:        in.Key,
		Input:      st.Input,
		Dropped:    st.Dropped,
		Active:     st.Active,
		Stationary: st.Stationary,
		Hybrid:     st.Hybrid,
		Empty:      res == nil,
		Duration:   elapsed,
		Time:       e.now(),
	}
	if res == nil {
		l.Infof("compute %s: no valid trips in %d records", in.RequestID, st.Input)
		e.record(ev, nil)
		return nil, st
	}
	ev.TotalKm = st.TotalKm
	ev.TotalKWh = st.TotalKWh
	l.Infof("compute %s: %d active, %d stationary, %s km in %s", in.RequestID, st.Active, st.Stationary, res.Summary.TotalKm, elapsed)
	e.record(ev, res)
	return res, st
}

func (e *Engine) record(ev metrics.ComputeEvent, res *model.Result) {
	s := e.sink()
	l := e.log()
	if err := s.RecordCompute(ev); err != nil {
		l.Warnf("record compute: %v", err)
	}
	if res == nil {
		return
	}
	if rec, ok := s.(metrics.MonthlyRecorder); ok {
		if err := rec.RecordMonthly(metrics.MonthlyEvent{Key: ev.Key, Buckets: res.Monthly, Time: ev.Time}); err != nil {
			l.Warnf("record monthly: %v", err)
		}
	}
	if res.Summary.SoHData == nil {
		return
	}
	if rec, ok := s.(metrics.SoHRecorder); ok {
		if err := rec.RecordSoH(metrics.SoHEvent{Key: ev.Key, Result: *res.Summary.SoHData, Time: ev.Time}); err != nil {
			l.Warnf("record soh: %v", err)
		}
	}
}
