package vidstab

import (
	"context"
	"fmt"
	"sync"
)

// Pool is a simple pipeline pool to stabilize multiple videos concurrently,
// each pipeline with its own backend
type Pool struct {
	// pool of pipelines
	pipelines chan *Pipeline
	// size of pool
	size  int
	close sync.Once
}

// Factory creates the i'th pipeline of a pool
type Factory func(i int) (*Pipeline, error)

// Job is a single video to stabilize
type Job struct {
	Input  string
	Output string
}

// JobResult is the outcome of a Job
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// NewPool creates a new pipeline pool
func NewPool(size int, factory Factory) (*Pool, error) {

	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	p := &Pool{
		pipelines: make(chan *Pipeline, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		pl, err := factory(i)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(pl)
	}

	return p, nil
}

// Get a pipeline from the pool, blocking until one is free or ctx is done
func (p *Pool) Get(ctx context.Context) (*Pipeline, error) {
	select {
	case pl := <-p.pipelines:
		return pl, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return a pipeline to the pool
func (p *Pool) Return(pl *Pipeline) {
	select {
	case p.pipelines <- pl:
	default:
		// pool is full
	}
}

// Size returns the number of pipelines in the pool
func (p *Pool) Size() int {
	return p.size
}

// Run processes the jobs across the pool and returns their results in job
// order.  Each job runs on one pipeline at a time.
func (p *Pool) Run(ctx context.Context, jobs []Job) []JobResult {

	results := make([]JobResult, len(jobs))

	var wg sync.WaitGroup

	for i, job := range jobs {

		results[i].Job = job

		pl, err := p.Get(ctx)

		if err != nil {
			results[i].Err = newError(KindCancelled, "pool", job.Input, err)
			continue
		}

		wg.Add(1)

		go func(i int, pl *Pipeline, job Job) {
			defer wg.Done()
			defer p.Return(pl)

			results[i].Result, results[i].Err = pl.Run(ctx, job.Input, job.Output)
		}(i, pl, job)
	}

	wg.Wait()

	return results
}

// Close the pool and all pipelines in it.  Pipelines still in use are not
// closed.
func (p *Pool) Close() {
	p.close.Do(func() {
		for {
			select {
			case next := <-p.pipelines:
				_ = next.Close()
			default:
				return
			}
		}
	})
}
