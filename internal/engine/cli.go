package engine

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"github.com/sirupsen/logrus"
)

// Only a hexadecimal identifier counts as an existing image. Anything else
// the engine prints (including nothing) means "not found".
var imageIDPattern = regexp.MustCompile(`^[0-9a-f]+$`)

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// CLIEngine drives the docker binary as an external process and parses its
// textual output.
type CLIEngine struct {
	runCmd commandRunner
}

func NewCLIEngine() *CLIEngine {
	return &CLIEngine{runCmd: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (e *CLIEngine) CheckImage(ctx context.Context, ref string) (bool, error) {
	logger := logging.GetLogger()

	output, err := e.runCmd(ctx, "docker", "images", "-q", ref)
	if err != nil {
		return false, fmt.Errorf("check image %s: %w", ref, err)
	}

	logger.WithField("image_id", strings.TrimSpace(output)).Debug("Image existence check")
	return imageIDPattern.MatchString(strings.TrimSpace(output)), nil
}

func (e *CLIEngine) BuildImage(ctx context.Context, spec BuildSpec) error {
	logger := logging.GetLogger()
	logger.WithField("image", spec.Tag).Info("Building image")

	args := []string{"build"}
	if spec.NoCache {
		args = append(args, "--no-cache")
	}
	args = append(args, "-t", spec.Tag, "-f", spec.Dockerfile, spec.ContextDir)

	output, err := e.runCmd(ctx, "docker", args...)
	if err != nil {
		return fmt.Errorf("build image %s: %w\n%s", spec.Tag, err, output)
	}

	logger.WithField("image", spec.Tag).Info("Successfully built image")
	logger.Debug(output)
	return nil
}

func (e *CLIEngine) PushImage(ctx context.Context, ref string, auth *RegistryAuth) error {
	logger := logging.GetLogger()
	logger.WithField("image", ref).Info("Publishing image")

	if auth != nil {
		output, err := e.runCmd(ctx, "docker", "login", "-u", auth.Username, "-p", auth.Password, auth.Host)
		if err != nil {
			return fmt.Errorf("registry login %s: %w\n%s", auth.Host, err, output)
		}
	}

	output, err := e.runCmd(ctx, "docker", "push", ref)
	if err != nil {
		return fmt.Errorf("push image %s: %w\n%s", ref, err, output)
	}

	logger.WithField("image", ref).Info("Successfully published image")
	logger.Debug(output)
	return nil
}

func (e *CLIEngine) RunContainer(ctx context.Context, spec RunSpec) (string, error) {
	logger := logging.GetLogger()

	args := []string{
		"run",
		"-v", spec.InputDir + ":/input",
		"-v", spec.OutputDir + ":/output",
		"--rm",
		spec.Image,
	}
	args = append(args, spec.Params...)

	logger.WithFields(logrus.Fields{
		"image":   spec.Image,
		"command": "docker " + strings.Join(args, " "),
	}).Info("Starting container")

	output, err := e.runCmd(ctx, "docker", args...)
	if err != nil {
		return output, fmt.Errorf("run container %s: %w", spec.Image, err)
	}

	logger.Debug(output)
	return output, nil
}

func (e *CLIEngine) Close() error {
	return nil
}
