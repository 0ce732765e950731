package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"jadwalku/internal/models"
)

// ErrDispatcherBusy is returned when the extraction queue is full.
var ErrDispatcherBusy = errors.New("server is busy, please retry")

// ErrDispatcherClosed is returned for jobs submitted after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

type DispatcherConfig struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
	// JobTimeout bounds a single extraction, including time spent queued.
	JobTimeout time.Duration
}

// Dispatcher hands extraction jobs to a bounded pool of workers in FIFO order.
// It implements the same Extract method as the extractor it wraps.
type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan Job
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	quit   chan struct{}
	done   chan struct{}
}

func NewDispatcher(extractor Extractor, cfg DispatcherConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		pool:     newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, extractor),
		jobQueue: make(chan Job, queueSize),
		timeout:  cfg.JobTimeout,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	// warm up
	for i := 0; i < d.pool.min; i++ {
		d.pool.spawnWorker()
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.quit:
			return
		case job := <-d.jobQueue:
			workerChan, ok := d.pool.acquire()
			if !ok {
				job.result <- jobResult{err: ErrDispatcherClosed}
				continue
			}
			debugLog("[dispatcher] assign %s job", job.Type)
			workerChan <- job
		}
	}
}

// Extract queues an extraction and waits for its result or ctx cancellation.
func (d *Dispatcher) Extract(ctx context.Context, text string, today time.Time) ([]models.ExtractedItem, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	job := Job{
		Type:   Extract,
		ctx:    ctx,
		text:   text,
		today:  today,
		result: make(chan jobResult, 1),
	}
	if err := d.submit(job); err != nil {
		return nil, err
	}
	select {
	case res := <-job.result:
		return res.items, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.jobQueue <- job:
		return nil
	default:
		return ErrDispatcherBusy
	}
}

// Close stops accepting jobs and shuts the pool down. Jobs still queued are
// failed with ErrDispatcherClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	d.pool.close()
	<-d.done
	for {
		select {
		case job := <-d.jobQueue:
			job.result <- jobResult{err: ErrDispatcherClosed}
		default:
			return
		}
	}
}
