package worker

import (
	"context"
	"time"

	"jadwalku/internal/models"
)

// Extractor is the blocking model call the pool runs on behalf of requests.
type Extractor interface {
	Extract(ctx context.Context, text string, today time.Time) ([]models.ExtractedItem, error)
}

type JobType string

const (
	Extract JobType = "extract"
	Stop    JobType = "stop"
)

type jobResult struct {
	items []models.ExtractedItem
	err   error
}

// Job is one extraction request travelling from the dispatcher to a worker.
type Job struct {
	Type   JobType
	ctx    context.Context
	text   string
	today  time.Time
	result chan jobResult
}

type Worker struct {
	id         int
	pool       *jobChannelPool
	extractor  Extractor
	jobChannel chan Job
}

func NewWorker(id int, pool *jobChannelPool, extractor Extractor) *Worker {
	return &Worker{
		id:         id,
		pool:       pool,
		extractor:  extractor,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	go func() {
		for {
			if !w.pool.Release(w.jobChannel) {
				w.pool.retire(w.jobChannel)
				return
			}
			job := <-w.jobChannel
			switch job.Type {
			case Stop:
				debugLog("[worker-%d] stop", w.id)
				w.pool.retire(w.jobChannel)
				return
			case Extract:
				w.run(job)
			}
		}
	}()
}

func (w *Worker) run(job Job) {
	// the caller may have given up while the job was queued
	if err := job.ctx.Err(); err != nil {
		job.result <- jobResult{err: err}
		return
	}
	debugLog("[worker-%d] extract start", w.id)
	items, err := w.extractor.Extract(job.ctx, job.text, job.today)
	debugLog("[worker-%d] extract done err=%v", w.id, err)
	job.result <- jobResult{items: items, err: err}
}
