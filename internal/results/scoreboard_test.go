package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/job"
)

// MockSink records written summaries.
type MockSink struct {
	summaries []*RunSummary
	err       error
}

func (m *MockSink) WriteScores(summary *RunSummary) error {
	if m.err != nil {
		return m.err
	}
	m.summaries = append(m.summaries, summary)
	return nil
}

func testResults() []job.Result {
	return []job.Result{
		{Job: "docker_t1_0_h2o", Output: "ok", Duration: 3 * time.Second},
		{Job: "docker_t1_1_h2o", Err: fmt.Errorf("container exited with status 1"), Duration: time.Second},
		{Job: "docker_t2_0_h2o", Output: "ok", Duration: 2 * time.Second},
	}
}

func TestMergeCounts(t *testing.T) {
	s := NewScoreboard("h2o", "small", t.TempDir(), nil)

	summary, err := s.Merge(testResults(), "", false)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %d/%d/%d (total/ok/failed), want 3/2/1", summary.Total, summary.Succeeded, summary.Failed)
	}
	if len(summary.Failures) != 1 || summary.Failures[0] != "docker_t1_1_h2o" {
		t.Errorf("Failures = %v, want the failed job identity", summary.Failures)
	}
	if summary.Framework != "h2o" || summary.Benchmark != "small" {
		t.Errorf("summary context = %s/%s, want h2o/small", summary.Framework, summary.Benchmark)
	}
}

func TestMergeKeepsTaskContext(t *testing.T) {
	s := NewScoreboard("h2o", "small", t.TempDir(), nil)

	summary, err := s.Merge(testResults(), "t1", false)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if summary.Task != "t1" {
		t.Errorf("Task = %q, want t1", summary.Task)
	}
}

func TestMergeWithoutSaveDoesNotPersist(t *testing.T) {
	dir := t.TempDir()
	sink := &MockSink{}
	s := NewScoreboard("h2o", "small", dir, sink)

	if _, err := s.Merge(testResults(), "", false); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scores were written without a save request")
	}
	if len(sink.summaries) != 0 {
		t.Errorf("sink was written without a save request")
	}
}

func TestMergeSavesScores(t *testing.T) {
	dir := t.TempDir()
	sink := &MockSink{}
	s := NewScoreboard("h2o", "small", dir, sink)

	if _, err := s.Merge(testResults(), "", true); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 scores file, got %d", len(entries))
	}

	name := entries[0].Name()
	if !strings.Contains(name, "h2o") || !strings.Contains(name, "small") {
		t.Errorf("scores file %q does not identify framework and benchmark", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"docker_t1_0_h2o\tdone", "docker_t1_1_h2o\tfailed", "container exited with status 1"} {
		if !strings.Contains(content, want) {
			t.Errorf("scores file missing %q:\n%s", want, content)
		}
	}

	if len(sink.summaries) != 1 {
		t.Errorf("sink received %d summaries, want 1", len(sink.summaries))
	}
}

func TestMergeSinkFailure(t *testing.T) {
	sink := &MockSink{err: fmt.Errorf("influxdb unreachable")}
	s := NewScoreboard("h2o", "small", t.TempDir(), sink)

	summary, err := s.Merge(testResults(), "", true)
	if err == nil {
		t.Fatal("Merge swallowed a sink failure")
	}
	if summary == nil {
		t.Error("Merge dropped the summary on sink failure")
	}
}

func TestMergeEmptyResults(t *testing.T) {
	s := NewScoreboard("h2o", "small", t.TempDir(), nil)

	summary, err := s.Merge(nil, "", false)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if summary.Total != 0 || summary.Failed != 0 {
		t.Errorf("empty merge produced counts %d/%d", summary.Total, summary.Failed)
	}
}
