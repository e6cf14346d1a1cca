package computelog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/config"
	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/worker"
)

func sampleRecords(base time.Time) []Record {
	return []Record{
		{Timestamp: base, RequestID: "r1", Key: "car", Summary: &model.Summary{TotalKm: "10.0"}},
		{Timestamp: base.Add(time.Minute), RequestID: "r2", Key: "van", Error: "boom"},
		{Timestamp: base.Add(2 * time.Minute), RequestID: "r3", Key: "car", Empty: true},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r1", all[0].RequestID)
	require.NotNil(t, all[0].Summary)
	assert.Equal(t, "10.0", all[0].Summary.TotalKm)

	car, err := store.Query(ctx, Query{Key: "car"})
	require.NoError(t, err)
	assert.Len(t, car, 2)

	failed, err := store.Query(ctx, Query{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)

	window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "r2", window[0].RequestID)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "compute.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "compute.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compute.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	big := &model.Summary{DateRange: strings.Repeat("x", 64*1024)}
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Append(context.Background(), Record{Timestamp: time.Now(), Summary: big}))
	}
	files, _ := filepath.Glob(filepath.Join(dir, "compute-*.jsonl"))
	assert.NotEmpty(t, files, "expected rotated files")

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 20)
}

func TestQueryMissingFile(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "none.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	s, err := New(config.ComputeLogConfig{Backend: "sqlite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	s, err = New(config.ComputeLogConfig{Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	_ = s.Close()

	_, err = New(config.ComputeLogConfig{Backend: "csv"})
	assert.Error(t, err)
}

func TestFromResponse(t *testing.T) {
	ts := time.Unix(100, 0)
	rec := FromResponse(worker.Response{ID: "x", Key: "k", Elapsed: 2500 * time.Microsecond, Dropped: 2}, ts)
	assert.Equal(t, 2.5, rec.ElapsedMS)
	assert.True(t, rec.Empty)
	assert.Nil(t, rec.Summary)

	rec = FromResponse(worker.Response{ID: "y", Result: &model.Result{Summary: model.Summary{TotalTrips: 3}}}, ts)
	assert.False(t, rec.Empty)
	require.NotNil(t, rec.Summary)
	assert.Equal(t, 3, rec.Summary.TotalTrips)
}

func TestAttachRecordsResponses(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "attach.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.New(worker.Config{}, analytics.NewEngine(nil, nil), nil, nil)
	pool.Start(ctx)
	done := Attach(ctx, pool, store, nil)

	_, err = pool.Do(ctx, worker.Request{ID: "a1", Key: "car", Trips: []*model.Trip{{Distance: model.Float(5)}}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		out, err := store.Query(context.Background(), Query{Key: "car"})
		return err == nil && len(out) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	require.NoError(t, pool.Close())
}
