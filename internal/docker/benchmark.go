// Package docker orchestrates benchmark runs inside docker images that are
// preconfigured with a given AutoML framework, so a benchmark can be
// reproduced anywhere without installing the framework's native dependencies.
package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/config"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/engine"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/job"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/resources"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/results"

	"github.com/sirupsen/logrus"
)

// SetupMode selects how the framework image is prepared before a run.
type SetupMode string

const (
	// SetupSkip performs no image action at all.
	SetupSkip SetupMode = "skip"
	// SetupAuto builds the image only when it does not exist yet.
	SetupAuto SetupMode = "auto"
	// SetupForce always rebuilds the image without the layer cache.
	SetupForce SetupMode = "force"
)

func ParseSetupMode(s string) (SetupMode, error) {
	switch mode := SetupMode(s); mode {
	case SetupSkip, SetupAuto, SetupForce:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown setup mode %q, expected skip, auto or force", s)
	}
}

// Benchmark runs one framework against one named task set inside containers.
type Benchmark struct {
	framework    *resources.FrameworkDefinition
	benchmark    *resources.BenchmarkDefinition
	cfg          *config.Config
	eng          engine.Engine
	parallelJobs int
	runner       *job.Runner
	scoreboard   *results.Scoreboard
}

func NewBenchmark(framework *resources.FrameworkDefinition, benchmark *resources.BenchmarkDefinition, cfg *config.Config, eng engine.Engine, scoreboard *results.Scoreboard, parallelJobs int) *Benchmark {
	logger := logging.GetLogger()

	if parallelJobs < 1 || parallelJobs > cfg.MaxParallelJobs {
		logger.WithField("max_parallel_jobs", cfg.MaxParallelJobs).Warn("Forcing parallelization to its upper limit")
		parallelJobs = cfg.MaxParallelJobs
	}

	b := &Benchmark{
		framework:    framework,
		benchmark:    benchmark,
		cfg:          cfg,
		eng:          eng,
		parallelJobs: parallelJobs,
		scoreboard:   scoreboard,
	}
	b.runner = job.NewRunner(b)
	return b
}

// ParallelJobs returns the effective concurrency after clamping.
func (b *Benchmark) ParallelJobs() int {
	return b.parallelJobs
}

// Setup prepares the framework image according to mode. A descriptor write
// failure aborts before any build is attempted; build and publish failures
// propagate to the caller.
func (b *Benchmark) Setup(ctx context.Context, mode SetupMode, upload bool) error {
	logger := logging.GetLogger()

	if mode == SetupSkip {
		return nil
	}

	ref := ImageName(b.framework)

	if mode == SetupAuto {
		exists, err := b.eng.CheckImage(ctx, ref)
		if err != nil {
			return fmt.Errorf("check image %s: %w", ref, err)
		}
		if exists {
			logger.WithField("image", ref).Info("Image already exists, skipping setup")
			return nil
		}
	}

	script, err := b.GenerateScript(b.framework.DockerCommands)
	if err != nil {
		return fmt.Errorf("generate docker script: %w", err)
	}

	spec := engine.BuildSpec{
		Dockerfile: script,
		ContextDir: ".",
		Tag:        ref,
		NoCache:    mode == SetupForce,
	}
	if err := b.eng.BuildImage(ctx, spec); err != nil {
		return fmt.Errorf("build image %s: %w", ref, err)
	}

	if upload {
		if err := b.eng.PushImage(ctx, ref, engine.Auth(b.cfg.Engine.Registry)); err != nil {
			return fmt.Errorf("upload image %s: %w", ref, err)
		}
	}

	return nil
}

// Run executes the whole benchmark. With parallelJobs == 1 the entire task
// set runs in a single container invocation; otherwise the benchmark is
// partitioned into one job per task or per task and fold.
func (b *Benchmark) Run(ctx context.Context, saveScores bool) (*results.RunSummary, error) {
	var jobs []job.Job
	if b.parallelJobs == 1 {
		jobs = append(jobs, b.makeJob("", nil))
	} else {
		jobs = append(jobs, b.benchmarkJobs()...)
	}

	res := b.runner.Run(ctx, jobs, b.parallelJobs)
	return b.scoreboard.Merge(res, "", saveScores)
}

// RunOne executes a single task, optionally restricted to the given folds.
// An empty fold selector means all of the task's folds.
func (b *Benchmark) RunOne(ctx context.Context, taskName string, folds []int, saveScores bool) (*results.RunSummary, error) {
	var jobs []job.Job
	if b.parallelJobs == 1 && len(folds) != 1 {
		jobs = append(jobs, b.makeJob(taskName, folds))
	} else {
		task, err := b.benchmark.Task(taskName)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, b.taskJobs(task, folds)...)
	}

	res := b.runner.Run(ctx, jobs, b.parallelJobs)
	return b.scoreboard.Merge(res, taskName, saveScores)
}

func (b *Benchmark) benchmarkJobs() []job.Job {
	var jobs []job.Job
	for _, task := range b.benchmark.Tasks {
		if b.cfg.Jobs.Split == config.SplitByFold {
			for fold := 0; fold < task.Folds; fold++ {
				jobs = append(jobs, b.makeJob(task.Name, []int{fold}))
			}
		} else {
			jobs = append(jobs, b.makeJob(task.Name, nil))
		}
	}
	return jobs
}

func (b *Benchmark) taskJobs(task *resources.TaskDefinition, folds []int) []job.Job {
	if len(folds) == 0 {
		for fold := 0; fold < task.Folds; fold++ {
			folds = append(folds, fold)
		}
	}

	var jobs []job.Job
	for _, fold := range folds {
		jobs = append(jobs, b.makeJob(task.Name, []int{fold}))
	}
	return jobs
}

// makeJob builds one job from its immutable parameters. The fold subset is
// part of the identifier so two jobs for the same task with different folds
// never collide in logs or results.
func (b *Benchmark) makeJob(taskName string, folds []int) job.Job {
	params := []string{b.framework.Name, b.benchmark.Name}
	if taskName != "" {
		params = append(params, "-t", taskName)
	}

	foldStrs := make([]string, 0, len(folds))
	for _, fold := range folds {
		foldStr := strconv.Itoa(fold)
		params = append(params, "-f", foldStr)
		foldStrs = append(foldStrs, foldStr)
	}

	name := taskName
	if name == "" {
		name = b.benchmark.Name
	}

	return job.Job{
		Name:   fmt.Sprintf("docker_%s_%s_%s", name, strings.Join(foldStrs, ":"), b.framework.Name),
		Params: params,
	}
}

// Invoke runs one job's container invocation. Setup is always skipped inside
// the container and the mount points are fixed, so the embedded app runs in
// local mode against the mounted folders. Concurrently running jobs share the
// output directory; the in-container app is responsible for writing to
// non-colliding paths within it.
func (b *Benchmark) Invoke(ctx context.Context, params []string) (string, error) {
	logger := logging.GetLogger()

	full := make([]string, 0, len(params)+6)
	full = append(full, params...)
	full = append(full, "-i", "/input", "-o", "/output", "-s", "skip")

	logger.WithFields(logrus.Fields{
		"input_dir":  b.cfg.InputDir,
		"output_dir": b.cfg.OutputDir,
	}).Info("Datasets are loaded from the input folder, generated files will be available in the output folder")

	return b.eng.RunContainer(ctx, engine.RunSpec{
		Image:     ImageName(b.framework),
		InputDir:  b.cfg.InputDir,
		OutputDir: b.cfg.OutputDir,
		Params:    full,
	})
}
