package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/config"
	"github.com/kilianp07/tripstats/core/factory"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/worker"
	"github.com/kilianp07/tripstats/infra/computelog"
)

func TestServiceComputesAndLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compute.log")
	cfg := &config.Config{
		Engine:     config.EngineConfig{Locale: "en", Timezone: "UTC"},
		ComputeLog: config.ComputeLogConfig{Enabled: true, Backend: "jsonl", Path: path},
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "en", svc.Engine.Defaults.Locale)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	resp, err := svc.Pool.Do(context.Background(), worker.Request{
		ID:    "r1",
		Key:   "car",
		Trips: []*model.Trip{{Distance: model.Float(10), Energy: model.Float(1.5)}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "r1", resp.ID)

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		recs, err := svc.logs.Query(context.Background(), computelog.Query{})
		return err == nil && len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())

	store, err := computelog.NewRotatingJSONLStore(path, 1, 1, 1)
	require.NoError(t, err)
	defer store.Close()
	records, err := store.Query(context.Background(), computelog.Query{Key: "car"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].RequestID)
}

func TestServiceRejectsBadTimezone(t *testing.T) {
	_, err := New(&config.Config{Engine: config.EngineConfig{Timezone: "Nowhere/Nope"}})
	assert.Error(t, err)
}

func TestServiceRejectsUnknownSink(t *testing.T) {
	cfg := &config.Config{}
	cfg.Metrics.Sinks = append(cfg.Metrics.Sinks, factory.ModuleConfig{Type: "missing"})
	_, err := New(cfg)
	assert.Error(t, err)
}
