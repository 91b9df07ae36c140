package solver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Factory builds a solver for one configuration.
type Factory func(cfg Config) (*Solver, error)

// Ensemble runs independent solvers over a list of configurations. Every
// member owns its own grid, so members run in parallel without locking.
type Ensemble struct {
	factory Factory
	configs []Config
	workers int
	metrics func() []Metric
}

func NewEnsemble(factory Factory, configs []Config) *Ensemble {
	return &Ensemble{
		factory: factory,
		configs: configs,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers bounds the number of members running at once.
func (e *Ensemble) WithWorkers(n int) *Ensemble {
	if n > 0 {
		e.workers = n
	}
	return e
}

// WithMetrics attaches a fresh set of metrics to every member.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

// Run returns one result per configuration, in order. Members that fail
// leave a nil entry and contribute to the joined error.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	errs := make([]error, len(e.configs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, len(e.configs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = e.runOne(ctx, idx)
			}
		}()
	}

	for i := range e.configs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			errs[i] = ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return results, errors.Join(errs...)
}

func (e *Ensemble) runOne(ctx context.Context, idx int) (*Result, error) {
	s, err := e.factory(e.configs[idx])
	if err != nil {
		return nil, fmt.Errorf("member %d: %w", idx, err)
	}
	if e.metrics != nil {
		for _, m := range e.metrics() {
			s.AddMetric(m)
		}
	}
	res, err := s.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("member %d: %w", idx, err)
	}
	return res, nil
}
