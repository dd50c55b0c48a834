package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"gopkg.in/yaml.v3"
)

// Resolver loads framework and benchmark definitions from their YAML files.
type Resolver struct {
	frameworks    map[string]*FrameworkDefinition
	benchmarksDir string
}

func NewResolver(frameworksFile, benchmarksDir string) (*Resolver, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(frameworksFile)
	if err != nil {
		logger.WithField("filepath", frameworksFile).WithError(err).Error("Failed to read frameworks file")
		return nil, fmt.Errorf("read frameworks file: %w", err)
	}

	var raw map[string]*FrameworkDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logger.WithField("filepath", frameworksFile).WithError(err).Error("Failed to parse frameworks file")
		return nil, fmt.Errorf("parse frameworks file: %w", err)
	}

	frameworks := make(map[string]*FrameworkDefinition, len(raw))
	for name, def := range raw {
		if def == nil {
			def = &FrameworkDefinition{}
		}
		def.Name = name
		if def.Dir == "" {
			def.Dir = filepath.Join("frameworks", strings.ToLower(name))
		}
		frameworks[strings.ToLower(name)] = def
	}

	logger.WithField("frameworks", len(frameworks)).Debug("Loaded framework definitions")

	return &Resolver{
		frameworks:    frameworks,
		benchmarksDir: benchmarksDir,
	}, nil
}

// Framework returns the definition matching name, case-insensitively.
func (r *Resolver) Framework(name string) (*FrameworkDefinition, error) {
	def, ok := r.frameworks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown framework %q", name)
	}
	return def, nil
}

// Benchmark loads the task set named name from the benchmarks directory.
func (r *Resolver) Benchmark(name string) (*BenchmarkDefinition, error) {
	logger := logging.GetLogger()

	path := filepath.Join(r.benchmarksDir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithField("filepath", path).WithError(err).Error("Failed to read benchmark definition")
		return nil, fmt.Errorf("read benchmark definition %q: %w", name, err)
	}

	var tasks []TaskDefinition
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		logger.WithField("filepath", path).WithError(err).Error("Failed to parse benchmark definition")
		return nil, fmt.Errorf("parse benchmark definition %q: %w", name, err)
	}

	def := &BenchmarkDefinition{Name: name, Tasks: tasks}
	if err := validateBenchmark(def); err != nil {
		return nil, fmt.Errorf("invalid benchmark definition %q: %w", name, err)
	}

	return def, nil
}

// Task returns the task named name within the benchmark.
func (b *BenchmarkDefinition) Task(name string) (*TaskDefinition, error) {
	for i := range b.Tasks {
		if b.Tasks[i].Name == name {
			return &b.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("benchmark %q has no task %q", b.Name, name)
}

func validateBenchmark(def *BenchmarkDefinition) error {
	if len(def.Tasks) == 0 {
		return fmt.Errorf("at least one task must be defined")
	}

	names := make(map[string]bool)
	for _, task := range def.Tasks {
		if task.Name == "" {
			return fmt.Errorf("task name is required")
		}
		if task.Folds < 1 {
			return fmt.Errorf("task %s: folds must be greater than 0", task.Name)
		}
		if names[task.Name] {
			return fmt.Errorf("task %s: name is already used", task.Name)
		}
		names[task.Name] = true
	}

	return nil
}
