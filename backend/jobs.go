package backend

import (
	"context"
	"sync"

	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
)

// JobFailure describes the most recent background write that failed. Seq
// increases with every failure.
type JobFailure struct {
	Seq  int
	Name string
	Err  error
}

type job struct {
	name string
	run  func() error
}

// Jobs runs background writes one at a time, in the order they were
// queued, so that a later change is never overwritten by an earlier one.
// Queueing never blocks.
type Jobs struct {
	mu    sync.Mutex
	queue []job
	wake  chan struct{}

	failures *stream.Source[JobFailure, JobFailure]
}

// NewJobs starts running queued jobs until ctx is done.
func NewJobs(ctx context.Context) *Jobs {
	j := &Jobs{wake: make(chan struct{}, 1)}
	j.failures = stream.NewSourceCtx(ctx, func(f JobFailure) (JobFailure, bool) {
		return f, f.Seq > 0
	})
	go j.run(ctx)
	return j
}

// Do queues f under name, which identifies it in logs and failures.
func (j *Jobs) Do(name string, f func() error) {
	j.mu.Lock()
	j.queue = append(j.queue, job{name: name, run: f})
	j.mu.Unlock()
	select {
	case j.wake <- struct{}{}:
	default:
	}
}

// Failures emits the latest failed job.
func (j *Jobs) Failures(ctx context.Context) <-chan JobFailure {
	return j.failures.Stream(ctx)
}

func (j *Jobs) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.wake:
		}
		for {
			next, ok := j.pop()
			if !ok {
				break
			}
			if err := next.run(); err != nil {
				log.Error("background write failed", "job", next.name, "err", err)
				j.failures.Update(func(prev JobFailure) JobFailure {
					return JobFailure{Seq: prev.Seq + 1, Name: next.name, Err: err}
				})
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (j *Jobs) pop() (job, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.queue) == 0 {
		return job{}, false
	}
	next := j.queue[0]
	j.queue[0] = job{}
	j.queue = j.queue[1:]
	return next, true
}
