// Package streaming renders batches of formulas concurrently and delivers
// the results in input order.
package streaming

import (
	"context"
	"runtime"
	"sync"
)

// Converter renders one formula. *texsvg.Renderer satisfies it.
type Converter interface {
	Convert(ctx context.Context, latex string, display bool) (string, error)
}

// Job is one formula to render. ID is carried through to the result.
type Job struct {
	ID      string
	LaTeX   string
	Display bool
}

// Result is the outcome of a Job. Index is the position of the job in the
// input sequence.
type Result struct {
	Index int
	Job   Job
	SVG   string
	Err   error
}

type StreamConfig struct {
	// BufferSize is the capacity of the result channel.
	BufferSize int
	// Concurrency is the number of workers; GOMAXPROCS when zero.
	Concurrency int
}

// Stream delivers results until the job channel is exhausted or the
// stream is closed.
type Stream interface {
	Results() <-chan Result
	// Close stops rendering and discards undelivered results.
	Close() error
}

type stream struct {
	results chan Result
	cancel  context.CancelFunc
	once    sync.Once
}

func (s *stream) Results() <-chan Result { return s.results }

func (s *stream) Close() error {
	s.once.Do(func() {
		s.cancel()
		for range s.results {
		}
	})
	return nil
}

type indexed struct {
	seq int
	job Job
}

// Render starts converting jobs. Results arrive in the order jobs were
// received, whatever order the workers finish them in.
func Render(ctx context.Context, conv Converter, jobs <-chan Job, cfg StreamConfig) Stream {
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &stream{results: make(chan Result, max(cfg.BufferSize, 0)), cancel: cancel}

	work := make(chan indexed)
	go func() {
		defer close(work)
		seq := 0
		for {
			select {
			case j, ok := <-jobs:
				if !ok {
					return
				}
				select {
				case work <- indexed{seq, j}:
					seq++
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan Result)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range work {
				svg, err := conv.Convert(ctx, w.job.LaTeX, w.job.Display)
				select {
				case done <- Result{Index: w.seq, Job: w.job, SVG: svg, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	go func() {
		defer close(s.results)
		pending := make(map[int]Result)
		next := 0
		for r := range done {
			pending[r.Index] = r
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				select {
				case s.results <- r:
				case <-ctx.Done():
					return
				}
				next++
			}
		}
	}()
	return s
}

// RenderAll renders jobs and returns their results in order. Per-job
// failures are reported in Result.Err; the error return is the context's.
func RenderAll(ctx context.Context, conv Converter, jobs []Job, cfg StreamConfig) ([]Result, error) {
	in := make(chan Job)
	go func() {
		defer close(in)
		for _, j := range jobs {
			select {
			case in <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	s := Render(ctx, conv, in, cfg)
	defer s.Close()
	out := make([]Result, 0, len(jobs))
	for r := range s.Results() {
		out = append(out, r)
	}
	if len(out) < len(jobs) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}
	return out, nil
}
