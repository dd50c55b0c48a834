// Package cmd wires the benchmark orchestrator's command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/config"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/database"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/docker"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/engine"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/resources"
	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/results"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

const defaultBenchmark = "test"

func Execute() error {
	loadEnvironment()

	var (
		configFile string
		logLevel   string
		taskName   string
		folds      []int
		parallel   int
		setupMode  string
		upload     bool
		keepScores bool
	)

	rootCmd := &cobra.Command{
		Use:     "automlbenchmark",
		Short:   "AutoML benchmark orchestration in docker",
		Long:    "Builds per-framework docker images and runs benchmark tasks inside them, with config and results exchanged through mounted folders",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run <framework> [benchmark]",
		Short: "Run a benchmark inside docker",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			benchmarkName := defaultBenchmark
			if len(args) > 1 {
				benchmarkName = args[1]
			}
			mode, err := docker.ParseSetupMode(setupMode)
			if err != nil {
				return err
			}
			return runBenchmark(configFile, args[0], benchmarkName, taskName, folds, parallel, mode, upload, keepScores)
		},
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to run configuration file")
	runCmd.Flags().StringVarP(&taskName, "task", "t", "", "Run only this task of the benchmark")
	runCmd.Flags().IntSliceVarP(&folds, "fold", "f", nil, "Fold to run (repeatable, default all folds)")
	runCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of jobs to run in parallel")
	runCmd.Flags().StringVarP(&setupMode, "setup", "s", string(docker.SetupAuto), "Image setup mode (skip, auto, force)")
	runCmd.Flags().BoolVarP(&upload, "upload", "u", false, "Publish the image after a successful build")
	runCmd.Flags().BoolVarP(&keepScores, "keep-scores", "k", false, "Persist merged scores after the run")
	runCmd.MarkFlagRequired("config")

	setupCmd := &cobra.Command{
		Use:   "setup <framework>",
		Short: "Build the docker image for a framework",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := docker.ParseSetupMode(setupMode)
			if err != nil {
				return err
			}
			if mode == docker.SetupSkip {
				return fmt.Errorf("setup mode %q performs no image action", mode)
			}
			return setupFramework(configFile, args[0], mode, upload)
		},
	}

	setupCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to run configuration file")
	setupCmd.Flags().StringVarP(&setupMode, "mode", "m", string(docker.SetupForce), "Image setup mode (auto, force)")
	setupCmd.Flags().BoolVarP(&upload, "upload", "u", false, "Publish the image after a successful build")
	setupCmd.MarkFlagRequired("config")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(configFile)
		},
	}

	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to run configuration file")
	validateCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(validateCmd)

	return rootCmd.Execute()
}

func loadEnvironment() {
	logger := logging.GetLogger()

	envFile := ".env"
	if _, err := os.Stat(envFile); err != nil {
		execPath, err := os.Executable()
		if err != nil {
			return
		}
		envFile = filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(envFile); err != nil {
			return
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
	} else {
		logger.WithField("file", envFile).Debug("Loaded environment variables")
	}
}

func validateConfig(configFile string) error {
	logger := logging.GetLogger()

	_, err := config.LoadConfig(configFile)
	if err != nil {
		logger.WithField("config_file", configFile).WithError(err).Error("Configuration validation failed")
		return err
	}
	logger.WithField("config_file", configFile).Info("Configuration is valid")
	return nil
}

// newBenchmark assembles a Benchmark with its engine binding and scoreboard
// from the run configuration. The returned cleanup releases the engine and
// sink.
func newBenchmark(configFile, frameworkName, benchmarkName string, parallel int) (*docker.Benchmark, func(), error) {
	logger := logging.GetLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	resolver, err := resources.NewResolver(cfg.FrameworksFile, cfg.BenchmarksDir)
	if err != nil {
		return nil, nil, err
	}

	framework, err := resolver.Framework(frameworkName)
	if err != nil {
		return nil, nil, err
	}

	benchmark, err := resolver.Benchmark(benchmarkName)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return nil, nil, err
	}

	var sink results.Sink
	var influx *database.InfluxDBSink
	if cfg.Scores.DB != nil {
		influx, err = database.NewInfluxDBSink(cfg.Scores.DB)
		if err != nil {
			eng.Close()
			return nil, nil, err
		}
		sink = influx
	}

	cleanup := func() {
		if influx != nil {
			influx.Close()
		}
		if err := eng.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close engine")
		}
	}

	scoreboard := results.NewScoreboard(framework.Name, benchmark.Name, cfg.Scores.Dir, sink)
	bench := docker.NewBenchmark(framework, benchmark, cfg, eng, scoreboard, parallel)
	return bench, cleanup, nil
}

func setupFramework(configFile, frameworkName string, mode docker.SetupMode, upload bool) error {
	bench, cleanup, err := newBenchmark(configFile, frameworkName, defaultBenchmark, 1)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	return bench.Setup(ctx, mode, upload)
}

func runBenchmark(configFile, frameworkName, benchmarkName, taskName string, folds []int, parallel int, mode docker.SetupMode, upload, keepScores bool) error {
	logger := logging.GetLogger()

	bench, cleanup, err := newBenchmark(configFile, frameworkName, benchmarkName, parallel)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	if err := bench.Setup(ctx, mode, upload); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	var summary *results.RunSummary
	if taskName != "" {
		summary, err = bench.RunOne(ctx, taskName, folds, keepScores)
	} else {
		summary, err = bench.Run(ctx, keepScores)
	}
	if err != nil {
		return err
	}

	if summary.Failed > 0 {
		logger.WithFields(logrus.Fields{
			"failed": summary.Failed,
			"jobs":   summary.Failures,
		}).Warn("Some jobs failed")
		return fmt.Errorf("%d of %d jobs failed: %v", summary.Failed, summary.Total, summary.Failures)
	}

	logger.WithFields(logrus.Fields{
		"framework": frameworkName,
		"benchmark": benchmarkName,
		"jobs":      summary.Total,
	}).Info("Benchmark completed successfully")
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	logger := logging.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received interrupt signal, shutting down")
		cancel()
	}()

	return ctx, cancel
}
