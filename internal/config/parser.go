package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filepath string) (*Config, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, err
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

func applyDefaults(config *Config) {
	if config.Script == "" {
		config.Script = "runbenchmark.py"
	}
	if config.MaxParallelJobs == 0 {
		config.MaxParallelJobs = 4
	}
	if config.FrameworksFile == "" {
		config.FrameworksFile = "resources/frameworks.yaml"
	}
	if config.BenchmarksDir == "" {
		config.BenchmarksDir = "resources/benchmarks"
	}
	if config.Engine.Binding == "" {
		config.Engine.Binding = BindingCLI
	}
	if config.Jobs.Split == "" {
		config.Jobs.Split = SplitByTask
	}
	if config.Scores.Dir == "" {
		config.Scores.Dir = "scores"
	}
}

func validateConfig(config *Config) error {
	if config.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}

	if config.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if config.MaxParallelJobs < 1 {
		return fmt.Errorf("max_parallel_jobs must be greater than 0")
	}

	switch config.Engine.Binding {
	case BindingCLI, BindingSDK:
	default:
		return fmt.Errorf("unknown engine binding %q, expected %q or %q", config.Engine.Binding, BindingCLI, BindingSDK)
	}

	switch config.Jobs.Split {
	case SplitByTask, SplitByFold:
	default:
		return fmt.Errorf("unknown job split %q, expected %q or %q", config.Jobs.Split, SplitByTask, SplitByFold)
	}

	if db := config.Scores.DB; db != nil {
		if db.Host == "" || db.Token == "" || db.Org == "" || db.Bucket == "" {
			return fmt.Errorf("incomplete database configuration")
		}
	}

	return nil
}
