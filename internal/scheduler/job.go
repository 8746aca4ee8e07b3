package scheduler

import "context"

// FuncJob wraps a function as a named job
type FuncJob struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncJob creates a job that calls fn
func NewFuncJob(name string, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{name: name, fn: fn}
}

// Name returns the job name
func (j *FuncJob) Name() string {
	return j.name
}

// Run calls the wrapped function
func (j *FuncJob) Run(ctx context.Context) error {
	return j.fn(ctx)
}
