package computelog

import (
	"context"
	"time"

	"github.com/kilianp07/tripstats/core/logger"
	"github.com/kilianp07/tripstats/core/worker"
)

// Source publishes worker responses. *worker.Pool implements it.
type Source interface {
	Responses() <-chan worker.Response
	Unsubscribe(ch <-chan worker.Response)
}

// Attach appends a record for every response published by src until ctx is
// canceled or src closes. The returned channel is closed once it stops.
func Attach(ctx context.Context, src Source, store Store, log logger.Logger) <-chan struct{} {
	if log == nil {
		log = logger.Nop{}
	}
	done := make(chan struct{})
	sub := src.Responses()
	go func() {
		defer close(done)
		defer src.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-sub:
				if !ok {
					return
				}
				if err := store.Append(ctx, FromResponse(resp, time.Now())); err != nil {
					log.Warnf("append compute log %s: %v", resp.ID, err)
				}
			}
		}
	}()
	return done
}
