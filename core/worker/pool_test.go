package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
)

// gateRunner blocks every run until release is closed.
type gateRunner struct {
	started chan string
	release chan struct{}
	panicOn string
}

func newGateRunner() *gateRunner {
	return &gateRunner{started: make(chan string, 8), release: make(chan struct{})}
}

func (g *gateRunner) Run(in analytics.Input) (*model.Result, analytics.Stats) {
	g.started <- in.RequestID
	<-g.release
	if in.RequestID == g.panicOn {
		panic("corrupted input")
	}
	if len(in.Trips) > 0 && in.Trips[0] != nil {
		in.Trips[0].Distance = model.Float(-1)
	}
	return &model.Result{IsHybrid: in.Key == "hybrid"}, analytics.Stats{Input: len(in.Trips)}
}

type jobSink struct {
	metrics.NopSink
	mu     sync.Mutex
	events []metrics.JobEvent
}

func (s *jobSink) RecordJob(ev metrics.JobEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

func (s *jobSink) transitions(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		if ev.JobID == id {
			out = append(out, ev.From+">"+ev.To)
		}
	}
	return out
}

func startPool(t *testing.T, r Runner, sink metrics.MetricsSink) *Pool {
	t.Helper()
	p := New(Config{Workers: 1, QueueSize: 4, TimeoutSeconds: 5}, r, nil, sink)
	p.Start(context.Background())
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestDoReturnsResult(t *testing.T) {
	r := newGateRunner()
	close(r.release)
	sink := &jobSink{}
	p := startPool(t, r, sink)

	resp, err := p.Do(context.Background(), Request{ID: "r1", Key: "hybrid"})
	require.NoError(t, err)
	assert.Equal(t, "r1", resp.ID)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.IsHybrid)
	assert.Equal(t, []string{"queued>running", "running>done"}, sink.transitions("r1"))
}

func TestRequestIsCopied(t *testing.T) {
	r := newGateRunner()
	close(r.release)
	p := startPool(t, r, nil)

	trip := &model.Trip{Distance: model.Float(12)}
	_, err := p.Do(context.Background(), Request{Trips: []*model.Trip{trip}})
	require.NoError(t, err)
	assert.Equal(t, 12.0, trip.Km())
}

func TestTrySubmitAssignsID(t *testing.T) {
	r := newGateRunner()
	close(r.release)
	p := startPool(t, r, nil)

	id, err := p.TrySubmit(Request{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	r := newGateRunner()
	sink := &jobSink{}
	p := startPool(t, r, sink)
	responses := p.Responses()

	errA := make(chan error, 1)
	go func() {
		_, err := p.Do(context.Background(), Request{ID: "a", Key: "car"})
		errA <- err
	}()
	require.Equal(t, "a", <-r.started)

	_, err := p.TrySubmit(Request{ID: "b", Key: "car"})
	require.NoError(t, err)
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	close(r.release)
	select {
	case resp := <-responses:
		assert.Equal(t, "b", resp.ID)
	case <-time.After(2 * time.Second):
		t.Fatalf("no response for b")
	}
	select {
	case resp := <-responses:
		t.Fatalf("unexpected response %s", resp.ID)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, []string{"queued>running", "running>superseded"}, sink.transitions("a"))
}

func TestDifferentKeysDoNotSupersede(t *testing.T) {
	r := newGateRunner()
	close(r.release)
	p := startPool(t, r, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, key := range []string{"x", "y"} {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			_, errs[i] = p.Do(context.Background(), Request{Key: key})
		}(i, key)
	}
	wg.Wait()
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestPanicBecomesErrorResponse(t *testing.T) {
	r := newGateRunner()
	r.panicOn = "bad"
	close(r.release)
	sink := &jobSink{}
	p := startPool(t, r, sink)
	responses := p.Responses()

	_, err := p.Do(context.Background(), Request{ID: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted input")

	resp := <-responses
	assert.Equal(t, "bad", resp.ID)
	assert.Contains(t, resp.Error, "corrupted input")
	assert.Nil(t, resp.Result)
	assert.Equal(t, []string{"queued>running", "running>failed"}, sink.transitions("bad"))

	// the worker survives
	_, err = p.Do(context.Background(), Request{ID: "good"})
	assert.NoError(t, err)
}

func TestClosedPoolRejects(t *testing.T) {
	r := newGateRunner()
	close(r.release)
	p := New(Config{}, r, nil, nil)
	p.Start(context.Background())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.TrySubmit(Request{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = p.Do(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTrySubmitQueueFull(t *testing.T) {
	r := newGateRunner()
	p := New(Config{Workers: 1, QueueSize: 1}, r, nil, nil)
	p.Start(context.Background())
	defer func() {
		close(r.release)
		_ = p.Close()
	}()

	_, err := p.TrySubmit(Request{ID: "1"})
	require.NoError(t, err)
	<-r.started
	_, err = p.TrySubmit(Request{ID: "2"})
	require.NoError(t, err)
	_, err = p.TrySubmit(Request{ID: "3"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, p.Pending())
}

func TestCloseReleasesBlockedDo(t *testing.T) {
	r := newGateRunner()
	// no workers: the queue stays full
	p := New(Config{QueueSize: 1, TimeoutSeconds: 5}, r, nil, nil)

	_, err := p.TrySubmit(Request{ID: "queued", Key: "a"})
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := p.Do(context.Background(), Request{ID: "blocked", Key: "b"})
		errs <- err
	}()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, ok := p.latest["b"]
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Close())
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatalf("Do still blocked after Close")
	}
	assert.Equal(t, 0, p.Pending())
}

func TestDoTimesOut(t *testing.T) {
	r := newGateRunner()
	p := New(Config{Workers: 1, TimeoutSeconds: 5}, r, nil, nil)
	p.Start(context.Background())
	defer func() {
		close(r.release)
		_ = p.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Do(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, Config{Workers: 1, QueueSize: 16, TimeoutSeconds: 30}, c)
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{Workers: 1000}.Validate())
}
