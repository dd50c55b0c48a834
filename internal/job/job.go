// Package job holds the schedulable unit of benchmark work and the bounded
// pool that executes batches of them.
package job

import (
	"context"
	"time"
)

// Invoker performs one container invocation for a job's parameters.
type Invoker interface {
	Invoke(ctx context.Context, params []string) (string, error)
}

// Job is one unit of benchmark work: an identifier unique within a run plus
// the immutable in-container command line it stands for. Jobs carry no
// closures so they can be constructed in a loop and run concurrently without
// aliasing hazards.
type Job struct {
	Name   string
	Params []string
}

// Result is a job's terminal outcome. Err is nil on success.
type Result struct {
	Job      string
	Output   string
	Duration time.Duration
	Err      error
}

// Execute runs the job against the invoker and records its outcome. It blocks
// until the underlying container process exits.
func (j Job) Execute(ctx context.Context, inv Invoker) Result {
	start := time.Now()
	output, err := inv.Invoke(ctx, j.Params)
	return Result{
		Job:      j.Name,
		Output:   output,
		Duration: time.Since(start),
		Err:      err,
	}
}
