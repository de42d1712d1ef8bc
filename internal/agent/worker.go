package agent

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Task is a unit of best-effort background work.
type Task func(ctx context.Context)

// Worker drains background tasks on a single consumer goroutine. It is
// owned explicitly: the process constructs it, starts it once, and shuts it
// down; nothing starts lazily behind a global.
type Worker struct {
	tasks  chan Task
	logger zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	mu      sync.Mutex
	closed  bool
	started bool
}

// NewWorker creates a worker with the given queue depth.
func NewWorker(queueSize int, logger zerolog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		tasks:  make(chan Task, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the consumer loop. Subsequent calls are no-ops.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.started = true
		w.mu.Unlock()
		go w.run(ctx)
	})
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for task := range w.tasks {
		w.runTask(ctx, task)
	}
}

// runTask isolates one task; a panic is logged and the loop continues.
func (w *Worker) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("event", "background_task_panic").Interface("panic", r).Msg("background task panicked")
		}
	}()
	task(ctx)
}

// Enqueue hands a task to the worker without blocking the turn. When the
// queue is full the task is dropped and the drop is logged.
func (w *Worker) Enqueue(task Task) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	select {
	case w.tasks <- task:
		return true
	default:
		w.logger.Warn().Str("event", "background_queue_full").Msg("dropping background task")
		return false
	}
}

// Shutdown stops intake and waits for queued tasks to finish.
func (w *Worker) Shutdown() {
	var started bool
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		started = w.started
		close(w.tasks)
		w.mu.Unlock()
		if !started {
			close(w.done)
		}
	})
	<-w.done
}
