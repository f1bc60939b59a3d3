package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	taskTimeout    = 15 * time.Second
)

type task struct {
	key string
	run func(ctx context.Context)
}

// Dispatcher runs deferred tasks on a fixed set of workers. Tasks are sharded
// by key with consistent hashing, so tasks for one key run in submission
// order and never concurrently.
type Dispatcher struct {
	workers []chan task
	log     zerolog.Logger

	mu  sync.RWMutex
	ctx context.Context
	wg  sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan task, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan task, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after running whatever is still queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Schedule queues fn on the worker responsible for key. It blocks only when
// that worker's buffer is full. Before Start and after shutdown the task
// runs on the caller's goroutine so it is never lost.
func (d *Dispatcher) Schedule(key string, fn func(ctx context.Context)) {
	d.mu.RLock()
	ctx := d.ctx
	d.mu.RUnlock()

	if ctx == nil || ctx.Err() != nil {
		d.runInline(key, fn)
		return
	}

	idx := d.shardIndex(key)
	select {
	case d.workers[idx] <- task{key: key, run: fn}:
		metrics.TaskQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-ctx.Done():
		d.runInline(key, fn)
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan task) {
	defer d.wg.Done()
	depth := metrics.TaskQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case t := <-ch:
			depth.Set(float64(len(ch)))
			d.execute(ctx, id, t)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan task) {
	for {
		select {
		case t := <-ch:
			d.execute(context.Background(), id, t)
		default:
			return
		}
	}
}

func (d *Dispatcher) runInline(key string, fn func(ctx context.Context)) {
	metrics.TasksInlineTotal.Inc()
	d.execute(context.Background(), -1, task{key: key, run: fn})
}

func (d *Dispatcher) execute(parent context.Context, id int, t task) {
	ctx, cancel := context.WithTimeout(parent, taskTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.TaskDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("key", t.key).
				Int("worker_id", id).
				Msg("task panicked")
		}
	}()
	t.run(ctx)
}
