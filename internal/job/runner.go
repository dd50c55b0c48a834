package job

import (
	"context"
	"sync"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"github.com/sirupsen/logrus"
)

// Runner executes a batch of jobs against one invoker with a bounded worker
// pool. A failed job never aborts its siblings; every job gets a Result.
type Runner struct {
	inv Invoker
}

func NewRunner(inv Invoker) *Runner {
	return &Runner{inv: inv}
}

// Run executes jobs with at most parallel workers and returns one result per
// job, in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job, parallel int) []Result {
	logger := logging.GetLogger()

	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(jobs) {
		parallel = len(jobs)
	}

	results := make([]Result, len(jobs))
	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				j := jobs[i]
				logger.WithField("job", j.Name).Info("Job started")

				result := j.Execute(ctx, r.inv)
				results[i] = result

				if result.Err != nil {
					logger.WithFields(logrus.Fields{
						"job":      j.Name,
						"duration": result.Duration,
					}).WithError(result.Err).Warn("Job failed")
				} else {
					logger.WithFields(logrus.Fields{
						"job":      j.Name,
						"duration": result.Duration,
					}).Info("Job completed")
				}
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
