package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimerQueue runs jobs on in-process timers. Waiting jobs are lost on restart.
type TimerQueue struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler Handler
	ctx     context.Context
	closed  bool
	running sync.WaitGroup
}

// NewTimerQueue returns an empty timer queue
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{
		timers: map[string]*time.Timer{},
		ctx:    context.Background(),
	}
}

// Start sets the handler for due jobs. Jobs that come due before Start are dropped.
func (q *TimerQueue) Start(ctx context.Context, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ctx = ctx
	q.handler = h
}

func (q *TimerQueue) Schedule(_ context.Context, job Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	key := job.Key()
	if _, ok := q.timers[key]; ok {
		return nil
	}
	q.timers[key] = time.AfterFunc(delay, func() { q.fire(key, job) })
	return nil
}

func (q *TimerQueue) Cancel(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := job.Key()
	if t, ok := q.timers[key]; ok {
		t.Stop()
		delete(q.timers, key)
	}
	return nil
}

// Pending returns the number of jobs still waiting
func (q *TimerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

func (q *TimerQueue) fire(key string, job Job) {
	q.mu.Lock()
	delete(q.timers, key)
	h, ctx, closed := q.handler, q.ctx, q.closed
	if !closed && h != nil {
		q.running.Add(1)
	}
	q.mu.Unlock()

	if closed {
		return
	}
	if h == nil {
		zap.S().Warnw("job came due before the queue was started, dropping", "job", key)
		return
	}
	defer q.running.Done()
	run(ctx, h, job)
}

// Close stops every waiting timer and waits for running handlers
func (q *TimerQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	for key, t := range q.timers {
		t.Stop()
		delete(q.timers, key)
	}
	q.mu.Unlock()
	q.running.Wait()
	return nil
}

// run calls h, logging and swallowing its error or panic
func run(ctx context.Context, h Handler, job Job) {
	defer func() {
		if p := recover(); p != nil {
			zap.S().Errorw("job panicked", "job", job.Key(), "panic", p)
		}
	}()
	if err := h(ctx, job); err != nil {
		zap.S().Errorw("job failed", "job", job.Key(), "error", err)
	}
}
