package playback

import (
	"context"
	"sync"
)

type checkJob struct {
	ctx    context.Context //nolint:containedctx // carried to the worker with the job
	path   string
	result chan error
}

// checkPool runs file accessibility checks on a fixed set of workers so
// callers never probe the filesystem from the playback context.
type checkPool struct {
	checker AccessChecker
	jobs    chan checkJob
	wg      sync.WaitGroup
	once    sync.Once
}

func newCheckPool(checker AccessChecker, workers int) *checkPool {
	p := &checkPool{
		checker: checker,
		jobs:    make(chan checkJob),
	}
	for range max(1, workers) {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *checkPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job.result <- p.checker.Check(job.ctx, job.path)
	}
}

// check blocks until a worker has checked path.
func (p *checkPool) check(ctx context.Context, path string, done <-chan struct{}) error {
	job := checkJob{ctx: ctx, path: path, result: make(chan error, 1)}
	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return ErrClosed
	}
	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop must only be called once no check can be submitted anymore.
func (p *checkPool) stop() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}
