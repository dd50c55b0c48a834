package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// countingInvoker tracks in-flight invocations and fails configured jobs.
type countingInvoker struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    int
	failOn   string
	delay    time.Duration
}

func (c *countingInvoker) Invoke(ctx context.Context, params []string) (string, error) {
	c.mu.Lock()
	c.inFlight++
	c.calls++
	if c.inFlight > c.maxSeen {
		c.maxSeen = c.inFlight
	}
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()

	joined := strings.Join(params, " ")
	if c.failOn != "" && strings.Contains(joined, c.failOn) {
		return "", fmt.Errorf("job failed")
	}
	return joined, nil
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			Name:   fmt.Sprintf("job-%d", i),
			Params: []string{"task", fmt.Sprintf("%d", i)},
		}
	}
	return jobs
}

func TestRunnerPreservesJobAssociation(t *testing.T) {
	inv := &countingInvoker{}
	runner := NewRunner(inv)

	jobs := makeJobs(5)
	results := runner.Run(context.Background(), jobs, 3)

	if len(results) != len(jobs) {
		t.Fatalf("got %d results for %d jobs", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Job != jobs[i].Name {
			t.Errorf("result %d is for job %q, want %q", i, r.Job, jobs[i].Name)
		}
		if want := strings.Join(jobs[i].Params, " "); r.Output != want {
			t.Errorf("result %d output %q, want %q", i, r.Output, want)
		}
	}
}

func TestRunnerHonorsConcurrencyBound(t *testing.T) {
	inv := &countingInvoker{delay: 20 * time.Millisecond}
	runner := NewRunner(inv)

	runner.Run(context.Background(), makeJobs(8), 2)

	if inv.maxSeen > 2 {
		t.Errorf("observed %d concurrent jobs, bound is 2", inv.maxSeen)
	}
	if inv.calls != 8 {
		t.Errorf("executed %d jobs, want 8", inv.calls)
	}
}

func TestRunnerSequentialWhenBoundIsOne(t *testing.T) {
	inv := &countingInvoker{delay: 5 * time.Millisecond}
	runner := NewRunner(inv)

	runner.Run(context.Background(), makeJobs(4), 1)

	if inv.maxSeen != 1 {
		t.Errorf("observed %d concurrent jobs, want sequential execution", inv.maxSeen)
	}
}

func TestRunnerCapturesFailuresWithoutAborting(t *testing.T) {
	inv := &countingInvoker{failOn: "task 1"}
	runner := NewRunner(inv)

	results := runner.Run(context.Background(), makeJobs(4), 2)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.Job != "job-1" {
				t.Errorf("unexpected failed job %q", r.Job)
			}
		}
	}
	if failed != 1 {
		t.Errorf("%d jobs failed, want 1", failed)
	}
	if inv.calls != 4 {
		t.Errorf("executed %d jobs, a failure must not abort siblings", inv.calls)
	}
}

func TestRunnerEmptyBatch(t *testing.T) {
	runner := NewRunner(&countingInvoker{})

	results := runner.Run(context.Background(), nil, 4)
	if len(results) != 0 {
		t.Errorf("got %d results for an empty batch", len(results))
	}
}

func TestExecuteRecordsDuration(t *testing.T) {
	inv := &countingInvoker{delay: 10 * time.Millisecond}
	j := Job{Name: "timed", Params: []string{"task", "0"}}

	result := j.Execute(context.Background(), inv)
	if result.Err != nil {
		t.Fatalf("Execute failed: %v", result.Err)
	}
	if result.Duration < 10*time.Millisecond {
		t.Errorf("duration %v shorter than the invocation", result.Duration)
	}
	if result.Job != "timed" {
		t.Errorf("result job = %q, want timed", result.Job)
	}
}
