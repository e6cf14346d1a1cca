package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/tripstats/core/metrics"
)

// PromSink exposes compute activity as Prometheus metrics.
type PromSink struct {
	computes   *prometheus.CounterVec
	dropped    prometheus.Counter
	duration   prometheus.Histogram
	responses  *prometheus.HistogramVec
	distance   prometheus.Counter
	soh        *prometheus.GaugeVec
	jobs       *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

// NewPromSink registers compute metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
// cfg.DurationBuckets, when set, replaces the default latency buckets.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	buckets := prometheus.DefBuckets
	if len(cfg.DurationBuckets) > 0 {
		buckets = cfg.DurationBuckets
	}
	s := &PromSink{
		computes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripstats_computations_total",
			Help: "Number of analytics computations",
		}, []string{"empty", "hybrid", "failed"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripstats_trips_dropped_total",
			Help: "Trip records rejected by validation",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripstats_compute_duration_seconds",
			Help:    "Time spent computing one result",
			Buckets: buckets,
		}),
		responses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripstats_response_seconds",
			Help:    "Time between request pickup and response publication",
			Buckets: buckets,
		}, []string{"failed"}),
		distance: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripstats_distance_km_total",
			Help: "Driven kilometres over all computations",
		}),
		soh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tripstats_battery_soh_percent",
			Help: "Last estimated battery state of health",
		}, []string{"key"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripstats_job_transitions_total",
			Help: "Worker job state transitions",
		}, []string{"from", "to"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripstats_queue_depth",
			Help: "Requests waiting for a worker",
		}),
	}

	var err error
	if s.computes, err = register(reg, s.computes); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, s.dropped); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.responses, err = register(reg, s.responses); err != nil {
		return nil, err
	}
	if s.distance, err = register(reg, s.distance); err != nil {
		return nil, err
	}
	if s.soh, err = register(reg, s.soh); err != nil {
		return nil, err
	}
	if s.jobs, err = register(reg, s.jobs); err != nil {
		return nil, err
	}
	if s.queueDepth, err = register(reg, s.queueDepth); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCompute counts the computation and its dropped records.
func (s *PromSink) RecordCompute(ev coremetrics.ComputeEvent) error {
	s.computes.WithLabelValues(
		strconv.FormatBool(ev.Empty),
		strconv.FormatBool(ev.Hybrid),
		strconv.FormatBool(ev.Err != ""),
	).Inc()
	if ev.Dropped > 0 {
		s.dropped.Add(float64(ev.Dropped))
	}
	if ev.TotalKm > 0 {
		s.distance.Add(ev.TotalKm)
	}
	if ev.Duration > 0 {
		s.duration.Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordSoH sets the health gauge of the request key.
func (s *PromSink) RecordSoH(ev coremetrics.SoHEvent) error {
	s.soh.WithLabelValues(ev.Key).Set(ev.Result.EstimatedSoH)
	return nil
}

// RecordJob counts a worker job transition.
func (s *PromSink) RecordJob(ev coremetrics.JobEvent) error {
	s.jobs.WithLabelValues(ev.From, ev.To).Inc()
	return nil
}

// RecordQueueDepth sets the queue depth gauge.
func (s *PromSink) RecordQueueDepth(depth int) error {
	s.queueDepth.Set(float64(depth))
	return nil
}

// RecordResponse observes the end-to-end latency of a published response.
func (s *PromSink) RecordResponse(ev coremetrics.ResponseEvent) error {
	s.responses.WithLabelValues(strconv.FormatBool(ev.Err != "")).Observe(ev.Elapsed.Seconds())
	return nil
}
