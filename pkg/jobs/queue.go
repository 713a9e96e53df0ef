package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the buffer cannot take another task.
var ErrQueueFull = errors.New("queue full")

// Task is one unit of background work. Tasks sharing a Key are coalesced while pending.
type Task[T any] struct {
	Key      string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task.
type Handler[T any] func(context.Context, T) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory worker pool with per-key coalescing and bounded retries.
type Queue[T any] struct {
	name    string
	handler Handler[T]

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks   chan Task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[string]struct{}
	started bool
}

// NewQueue builds a queue that runs handler for every task.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		tasks:      make(chan Task[T], cfg.BufferSize),
		pending:    make(map[string]struct{}),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit. Pending tasks are dropped.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue schedules payload under key. A key already waiting is not queued twice.
// It never blocks: a full buffer returns ErrQueueFull.
func (q *Queue[T]) Enqueue(key string, payload T) error {
	return q.push(Task[T]{Key: key, Payload: payload, Enqueued: time.Now().UTC()}, true)
}

func (q *Queue[T]) push(task Task[T], coalesce bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started || q.ctx.Err() != nil {
		return fmt.Errorf("queue %s not running", q.name)
	}
	if _, waiting := q.pending[task.Key]; waiting && coalesce {
		return nil
	}

	select {
	case q.tasks <- task:
		q.pending[task.Key] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending reports how many distinct keys are waiting.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			q.mu.Lock()
			delete(q.pending, task.Key)
			q.mu.Unlock()

			if err := q.handler(q.ctx, task.Payload); err != nil {
				q.handleFailure(task, err)
			}
		}
	}
}

func (q *Queue[T]) handleFailure(task Task[T], err error) {
	task.Attempt++
	if task.Attempt > q.maxRetries {
		q.logger.Error("task exceeded retries", zap.String("queue", q.name), zap.String("key", task.Key), zap.Error(err))
		return
	}
	q.logger.Warn("task failed, retrying", zap.String("queue", q.name), zap.String("key", task.Key), zap.Int("attempt", task.Attempt), zap.Error(err))

	go func(t Task[T]) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.push(t, true); err != nil {
				q.logger.Warn("failed to requeue task", zap.String("queue", q.name), zap.String("key", t.Key), zap.Error(err))
			}
		}
	}(task)
}
