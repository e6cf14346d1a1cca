package worker

import (
	"context"

	"github.com/looplab/fsm"
)

// Job states.
const (
	StateQueued     = "queued"
	StateRunning    = "running"
	StateDone       = "done"
	StateFailed     = "failed"
	StateSuperseded = "superseded"
)

// Job events.
const (
	EventStart     = "start"
	EventFinish    = "finish"
	EventFail      = "fail"
	EventSupersede = "supersede"
)

type outcome struct {
	resp Response
	err  error
}

// job tracks one request through the pool. All transitions happen under
// Pool.mu.
type job struct {
	req  Request
	fsm  *fsm.FSM
	done chan outcome
}

func newJob(req Request, onTransition func(j *job, from, to string)) *job {
	j := &job{req: req, done: make(chan outcome, 1)}
	j.fsm = fsm.NewFSM(
		StateQueued,
		fsm.Events{
			{Name: EventStart, Src: []string{StateQueued}, Dst: StateRunning},
			{Name: EventFinish, Src: []string{StateRunning}, Dst: StateDone},
			{Name: EventFail, Src: []string{StateRunning}, Dst: StateFailed},
			{Name: EventSupersede, Src: []string{StateQueued, StateRunning}, Dst: StateSuperseded},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				if onTransition != nil && e.Src != e.Dst {
					onTransition(j, e.Src, e.Dst)
				}
			},
		},
	)
	return j
}

func (j *job) state() string { return j.fsm.Current() }

func (j *job) fire(event string) error {
	return j.fsm.Event(context.Background(), event)
}

// settle delivers the final outcome to a waiting caller, at most once.
func (j *job) settle(o outcome) {
	select {
	case j.done <- o:
	default:
	}
}
