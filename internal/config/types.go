package config

// Config is the run configuration for the benchmark orchestrator. It is
// loaded once at startup and passed explicitly into each component.
type Config struct {
	InputDir        string       `yaml:"input_dir"`
	OutputDir       string       `yaml:"output_dir"`
	Script          string       `yaml:"script"`
	MaxParallelJobs int          `yaml:"max_parallel_jobs"`
	FrameworksFile  string       `yaml:"frameworks_file"`
	BenchmarksDir   string       `yaml:"benchmarks_dir"`
	Engine          EngineConfig `yaml:"engine"`
	Jobs            JobsConfig   `yaml:"jobs"`
	Scores          ScoresConfig `yaml:"scores"`
}

type EngineConfig struct {
	Binding  string          `yaml:"binding"`
	Registry *RegistryConfig `yaml:"registry,omitempty"`
}

type RegistryConfig struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type JobsConfig struct {
	// Split controls how a parallel benchmark run is partitioned into jobs:
	// one job per task, or one job per task and fold.
	Split string `yaml:"split"`
}

type ScoresConfig struct {
	Dir string          `yaml:"dir"`
	DB  *DatabaseConfig `yaml:"db,omitempty"`
}

type DatabaseConfig struct {
	Host   string `yaml:"host"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

const (
	SplitByTask = "task"
	SplitByFold = "fold"

	BindingCLI = "cli"
	BindingSDK = "sdk"
)
