package metrics

import (
	"fmt"

	"github.com/kilianp07/tripstats/core/factory"
)

// Config selects the metrics sinks and the Prometheus listener.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort string                 `json:"prometheus_port"`
	// DurationBuckets overrides the compute latency histogram buckets, in
	// seconds. Empty means the Prometheus defaults.
	DurationBuckets []float64 `json:"duration_buckets"`
}

// Validate checks sink declarations and bucket ordering.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: missing type", i)
		}
	}
	for i := 1; i < len(c.DurationBuckets); i++ {
		if c.DurationBuckets[i] <= c.DurationBuckets[i-1] {
			return fmt.Errorf("metrics.duration_buckets must be increasing")
		}
	}
	return nil
}
