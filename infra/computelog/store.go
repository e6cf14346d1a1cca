// Package computelog keeps an audit trail of the computations served by the
// worker pool, either as rotated JSON lines or in a SQLite table.
package computelog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/tripstats/config"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/worker"
)

// Record captures one served computation.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
	Key       string         `json:"key"`
	Dropped   int            `json:"dropped"`
	ElapsedMS float64        `json:"elapsed_ms"`
	Error     string         `json:"error,omitempty"`
	Empty     bool           `json:"empty"`
	Summary   *model.Summary `json:"summary,omitempty"`
}

// FromResponse builds the record of resp observed at ts.
func FromResponse(resp worker.Response, ts time.Time) Record {
	rec := Record{
		Timestamp: ts,
		RequestID: resp.ID,
		Key:       resp.Key,
		Dropped:   resp.Dropped,
		ElapsedMS: float64(resp.Elapsed) / float64(time.Millisecond),
		Error:     resp.Error,
		Empty:     resp.Result == nil && resp.Error == "",
	}
	if resp.Result != nil {
		s := resp.Result.Summary
		rec.Summary = &s
	}
	return rec
}

// Query defines filters for retrieving records.
type Query struct {
	Start time.Time
	End   time.Time
	Key   string
	// FailedOnly keeps records carrying an error.
	FailedOnly bool
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Key != "" && r.Key != q.Key {
		return false
	}
	if q.FailedOnly && r.Error == "" {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// New opens the store selected by cfg.
func New(cfg config.ComputeLogConfig) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "jsonl":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return nil, fmt.Errorf("unknown compute_log backend %s", cfg.Backend)
	}
}
