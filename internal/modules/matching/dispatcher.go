package matching

import (
	"context"
	"sync"

	"parcel-relay/internal/metrics"

	"go.uber.org/zap"
)

// task is one unit of background work with a name for logs and metrics.
type task struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher executes fire-and-forget matching work off the request path.
// It is an explicit bounded queue rather than detached goroutines so that
// completion, failure visibility, and shutdown are controllable. Task
// failures are logged and counted, never surfaced to the submitter: each
// matching run is idempotent and a later trigger repeats it.
type Dispatcher struct {
	tasks chan task
	log   *zap.Logger
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given queue capacity.
func NewDispatcher(queueSize int, log *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		tasks: make(chan task, queueSize),
		log:   log,
	}
}

// Start launches the worker goroutines. Workers drain the queue until it is
// closed by Stop; ctx bounds each task's execution.
func (d *Dispatcher) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for t := range d.tasks {
		if err := t.run(ctx); err != nil {
			metrics.BackgroundTaskFailuresTotal.WithLabelValues(t.name).Inc()
			d.log.Error("background task failed",
				zap.String("task", t.name),
				zap.Error(err),
			)
		}
	}
}

// Submit enqueues a task without blocking. A full queue drops the task,
// which is acceptable: a dropped re-match is recovered by the next trigger.
// Reports whether the task was enqueued.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context) error) bool {
	select {
	case d.tasks <- task{name: name, run: run}:
		return true
	default:
		metrics.BackgroundTasksDroppedTotal.Inc()
		d.log.Warn("background queue full, task dropped", zap.String("task", name))
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (d *Dispatcher) Stop() {
	close(d.tasks)
	d.wg.Wait()
}
