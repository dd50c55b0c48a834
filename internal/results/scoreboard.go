// Package results reconciles per-job outcomes into an aggregate run summary
// and hands it to the configured persistence sinks. No scoring logic lives
// here; job-to-result association is preserved as-is.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/job"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"github.com/sirupsen/logrus"
)

// RunSummary is the merged outcome of one run.
type RunSummary struct {
	Framework string
	Benchmark string
	Task      string
	Finished  time.Time
	Total     int
	Succeeded int
	Failed    int
	Failures  []string
	Results   []job.Result
}

// Sink persists merged run summaries.
type Sink interface {
	WriteScores(summary *RunSummary) error
}

// Scoreboard merges job results for one framework/benchmark pair.
type Scoreboard struct {
	framework string
	benchmark string
	dir       string
	sink      Sink
}

// NewScoreboard creates a scoreboard writing saved scores under dir. sink may
// be nil when no database persistence is configured.
func NewScoreboard(framework, benchmark, dir string, sink Sink) *Scoreboard {
	return &Scoreboard{
		framework: framework,
		benchmark: benchmark,
		dir:       dir,
		sink:      sink,
	}
}

// Merge combines per-job results into a summary. taskName carries the single
// task context when the run targeted one task, otherwise it is empty. When
// save is set the summary is persisted immediately.
func (s *Scoreboard) Merge(res []job.Result, taskName string, save bool) (*RunSummary, error) {
	logger := logging.GetLogger()

	summary := &RunSummary{
		Framework: s.framework,
		Benchmark: s.benchmark,
		Task:      taskName,
		Finished:  time.Now(),
		Total:     len(res),
		Results:   res,
	}

	for _, r := range res {
		if r.Err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, r.Job)
		} else {
			summary.Succeeded++
		}
	}

	logger.WithFields(logrus.Fields{
		"framework": s.framework,
		"benchmark": s.benchmark,
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Run results merged")

	if !save {
		return summary, nil
	}

	if err := s.save(summary); err != nil {
		return summary, fmt.Errorf("save scores: %w", err)
	}

	if s.sink != nil {
		if err := s.sink.WriteScores(summary); err != nil {
			return summary, fmt.Errorf("write scores to database: %w", err)
		}
	}

	return summary, nil
}

func (s *Scoreboard) save(summary *RunSummary) error {
	logger := logging.GetLogger()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_%s_%s.scores", summary.Finished.Format("20060102T150405"), s.framework, s.benchmark)
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "job\tstatus\tduration\terror")
	for _, r := range summary.Results {
		status := "done"
		errMsg := ""
		if r.Err != nil {
			status = "failed"
			errMsg = r.Err.Error()
		}
		fmt.Fprintf(file, "%s\t%s\t%s\t%s\n", r.Job, status, r.Duration.Round(time.Millisecond), errMsg)
	}

	logger.WithField("path", path).Info("Scores saved")
	return nil
}
