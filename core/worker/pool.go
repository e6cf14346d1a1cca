// Package worker is the execution boundary of the analytics engine. Requests
// are deep-copied on entry, computed on a fixed set of goroutines and their
// responses deep-copied again before they are handed out.
//
// A newer request with the same key supersedes an older one that is still
// queued or running: the stale result is discarded and never published.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/core/logger"
	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/monitoring"
	"github.com/kilianp07/tripstats/internal/eventbus"
)

var (
	// ErrClosed is returned once the pool has been closed.
	ErrClosed = errors.New("worker: pool closed")
	// ErrSuperseded is returned to callers whose request was replaced by a
	// newer one with the same key.
	ErrSuperseded = errors.New("worker: request superseded")
	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("worker: queue full")
)

// Config sizes the pool.
type Config struct {
	Workers        int `json:"workers"`
	QueueSize      int `json:"queue_size"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers > 256 {
		return fmt.Errorf("worker.workers must be <= 256, got %d", c.Workers)
	}
	return nil
}

// Timeout is the maximum time Do waits for a response.
func (c Config) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }

// Runner computes one request. *analytics.Engine implements it.
type Runner interface {
	Run(in analytics.Input) (*model.Result, analytics.Stats)
}

// Pool runs compute requests on background goroutines.
type Pool struct {
	cfg    Config
	runner Runner
	log    logger.Logger
	sink   metrics.MetricsSink
	bus    *eventbus.TypedBus[Response]

	mu     sync.Mutex
	queue  chan *job
	latest map[string]*job
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
	// sending counts enqueues blocked on a full queue. Close drains the
	// queue only once they have all returned.
	sending sync.WaitGroup
}

// New returns a pool. Start must be called before requests are processed.
func New(cfg Config, runner Runner, log logger.Logger, sink metrics.MetricsSink) *Pool {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Pool{
		cfg:    cfg,
		runner: runner,
		log:    log,
		sink:   sink,
		bus:    eventbus.NewTyped[Response](),
		queue:  make(chan *job, cfg.QueueSize),
		latest: make(map[string]*job),
		quit:   make(chan struct{}),
	}
}

// Start launches the workers. They stop when ctx is cancelled or the pool is
// closed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.loop(ctx)
	}
	p.log.Infof("worker pool started with %d workers", p.cfg.Workers)
}

// Responses subscribes to every published response.
func (p *Pool) Responses() <-chan Response {
	return p.bus.SubscribeBuffered(p.cfg.QueueSize)
}

// Unsubscribe releases a channel returned by Responses.
func (p *Pool) Unsubscribe(ch <-chan Response) { p.bus.Unsubscribe(ch) }

// TrySubmit queues req and returns its ID without waiting for the result.
// It fails with ErrQueueFull instead of waiting for a free slot.
func (p *Pool) TrySubmit(req Request) (string, error) {
	j, err := p.enqueue(context.Background(), req, false)
	if err != nil {
		return "", err
	}
	return j.req.ID, nil
}

// Do submits req and waits for its response.
func (p *Pool) Do(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout())
	defer cancel()
	j, err := p.enqueue(ctx, req, true)
	if err != nil {
		return Response{}, err
	}
	select {
	case o := <-j.done:
		return o.resp, o.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, req Request, wait bool) (*job, error) {
	cp, err := deepCopy(req)
	if err != nil {
		return nil, err
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	j := newJob(cp, p.transition)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if !wait {
		defer p.mu.Unlock()
		select {
		case p.queue <- j:
		default:
			return nil, ErrQueueFull
		}
		p.supersede(j)
		p.recordDepth()
		return j, nil
	}
	// register before sending so a later request with the same key always
	// wins, even if a worker picks this one up right away
	p.supersede(j)
	p.sending.Add(1)
	p.mu.Unlock()

	select {
	case p.queue <- j:
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if !closed {
			p.sending.Done()
			p.recordDepth()
			return j, nil
		}
		// Close drains the queue and settles j once sending is released.
		err = ErrClosed
	case <-p.quit:
		err = ErrClosed
	case <-ctx.Done():
		err = ctx.Err()
	}
	p.sending.Done()
	p.mu.Lock()
	if p.latest[cp.Key] == j {
		delete(p.latest, cp.Key)
	}
	p.mu.Unlock()
	return nil, err
}

// supersede marks the previous job of the same key stale. Caller holds p.mu.
func (p *Pool) supersede(j *job) {
	key := j.req.Key
	if key == "" {
		return
	}
	if prev, ok := p.latest[key]; ok && prev != j {
		if st := prev.state(); st == StateQueued || st == StateRunning {
			if err := prev.fire(EventSupersede); err == nil {
				prev.settle(outcome{err: ErrSuperseded})
				p.log.Debugf("request %s superseded by %s", prev.req.ID, j.req.ID)
			}
		}
	}
	p.latest[key] = j
}

func (p *Pool) transition(j *job, from, to string) {
	rec, ok := p.sink.(metrics.JobRecorder)
	if !ok {
		return
	}
	if err := rec.RecordJob(metrics.JobEvent{
		JobID: j.req.ID,
		Key:   j.req.Key,
		From:  from,
		To:    to,
		Time:  time.Now(),
	}); err != nil {
		p.log.Warnf("record job transition: %v", err)
	}
}

func (p *Pool) recordDepth() {
	if rec, ok := p.sink.(metrics.QueueDepthRecorder); ok {
		_ = rec.RecordQueueDepth(len(p.queue))
	}
}

func (p *Pool) loop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case j := <-p.queue:
			p.process(j)
		}
	}
}

func (p *Pool) process(j *job) {
	p.mu.Lock()
	if j.state() != StateQueued {
		p.mu.Unlock()
		return
	}
	_ = j.fire(EventStart)
	p.mu.Unlock()

	resp, err := p.execute(j.req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if j.state() == StateSuperseded {
		return
	}
	if p.latest[j.req.Key] == j {
		delete(p.latest, j.req.Key)
	}
	if err != nil {
		_ = j.fire(EventFail)
		resp = Response{ID: j.req.ID, Key: j.req.Key, Error: err.Error()}
	} else {
		_ = j.fire(EventFinish)
	}
	j.settle(outcome{resp: resp, err: err})
	p.bus.Publish(resp)
}

// execute runs the computation, turning a panic into an error.
func (p *Pool) execute(req Request) (resp Response, err error) {
	defer func() {
		if perr := monitoring.Guard(recover(), map[string]string{"request_id": req.ID, "key": req.Key}); perr != nil {
			err = perr
			p.log.Errorf("compute %s: %v", req.ID, perr)
		}
	}()

	start := time.Now()
	res, st := p.runner.Run(analytics.Input{
		RequestID: req.ID,
		Key:       req.Key,
		Trips:     req.Trips,
		Settings:  req.Settings,
		Charges:   req.Charges,
		Locale:    req.Locale,
	})
	out, err := deepCopy(res)
	if err != nil {
		return Response{}, err
	}
	return Response{
		ID:      req.ID,
		Key:     req.Key,
		Result:  out,
		Elapsed: time.Since(start),
		Dropped: st.Dropped,
	}, nil
}

// Pending returns the number of queued jobs.
func (p *Pool) Pending() int { return len(p.queue) }

// Close stops accepting requests, settles queued jobs with ErrClosed and
// waits for running ones to finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()
	p.sending.Wait()
	for {
		select {
		case j := <-p.queue:
			j.settle(outcome{err: ErrClosed})
			continue
		default:
		}
		break
	}
	p.bus.Close()
	p.log.Infof("worker pool stopped")
	return nil
}
