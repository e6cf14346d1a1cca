package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/worker"
)

// StartResponseCollector records every response published by the pool. It
// stops when ctx is canceled or the pool closes its response channel.
func StartResponseCollector(ctx context.Context, pool *worker.Pool, sink coremetrics.MetricsSink) {
	if pool == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.ResponseRecorder)
	if !ok {
		return
	}
	sub := pool.Responses()
	go func() {
		defer pool.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordResponse(coremetrics.ResponseEvent{
					RequestID: resp.ID,
					Key:       resp.Key,
					Elapsed:   resp.Elapsed,
					Err:       resp.Error,
					Time:      time.Now(),
				})
			}
		}
	}()
}
