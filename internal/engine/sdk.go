package engine

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/sirupsen/logrus"
)

// SDKEngine drives the engine through the Docker client API instead of the
// docker binary.
type SDKEngine struct {
	cli *client.Client
}

func NewSDKEngine() (*SDKEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return &SDKEngine{cli: cli}, nil
}

func (e *SDKEngine) CheckImage(ctx context.Context, ref string) (bool, error) {
	images, err := e.cli.ImageList(ctx, types.ImageListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("check image %s: %w", ref, err)
	}
	return len(images) > 0, nil
}

func (e *SDKEngine) BuildImage(ctx context.Context, spec BuildSpec) error {
	logger := logging.GetLogger()
	logger.WithField("image", spec.Tag).Info("Building image")

	dockerfile, err := filepath.Rel(spec.ContextDir, spec.Dockerfile)
	if err != nil {
		dockerfile = spec.Dockerfile
	}

	buildContext, err := tarDirectory(spec.ContextDir)
	if err != nil {
		return fmt.Errorf("tar build context %s: %w", spec.ContextDir, err)
	}

	resp, err := e.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{spec.Tag},
		Dockerfile: dockerfile,
		NoCache:    spec.NoCache,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build image %s: %w", spec.Tag, err)
	}
	defer resp.Body.Close()

	// The build stream reports failures as error messages, not as an error
	// return from ImageBuild.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("build image %s: %w", spec.Tag, err)
	}

	logger.WithField("image", spec.Tag).Info("Successfully built image")
	return nil
}

func (e *SDKEngine) PushImage(ctx context.Context, ref string, auth *RegistryAuth) error {
	logger := logging.GetLogger()
	logger.WithField("image", ref).Info("Publishing image")

	authString, err := registryAuthString(auth)
	if err != nil {
		return fmt.Errorf("push image %s: %w", ref, err)
	}

	resp, err := e.cli.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: authString})
	if err != nil {
		return fmt.Errorf("push image %s: %w", ref, err)
	}
	defer resp.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(resp, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("push image %s: %w", ref, err)
	}

	logger.WithField("image", ref).Info("Successfully published image")
	return nil
}

func (e *SDKEngine) RunContainer(ctx context.Context, spec RunSpec) (string, error) {
	logger := logging.GetLogger()

	containerConfig := &container.Config{
		Image: spec.Image,
		Cmd:   spec.Params,
		Tty:   true,
	}
	hostConfig := &container.HostConfig{
		Binds: []string{
			spec.InputDir + ":/input",
			spec.OutputDir + ":/output",
		},
	}

	logger.WithFields(logrus.Fields{
		"image":   spec.Image,
		"command": strings.Join(spec.Params, " "),
	}).Info("Starting container")

	resp, err := e.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create container %s: %w", spec.Image, err)
	}
	defer e.removeContainer(resp.ID)

	if err := e.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("start container %s: %w", spec.Image, err)
	}

	statusCh, errCh := e.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case err := <-errCh:
		return "", fmt.Errorf("wait for container %s: %w", spec.Image, err)
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-ctx.Done():
		return "", ctx.Err()
	}

	output, err := e.containerOutput(ctx, resp.ID)
	if err != nil {
		logger.WithField("container_id", resp.ID[:12]).WithError(err).Warn("Failed to collect container output")
	}

	if exitCode != 0 {
		return output, fmt.Errorf("container %s exited with status %d", spec.Image, exitCode)
	}
	return output, nil
}

func (e *SDKEngine) containerOutput(ctx context.Context, containerID string) (string, error) {
	logs, err := e.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", err
	}
	defer logs.Close()

	data, err := io.ReadAll(logs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *SDKEngine) removeContainer(containerID string) {
	logger := logging.GetLogger()

	removeOptions := types.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}

	if err := e.cli.ContainerRemove(context.Background(), containerID, removeOptions); err != nil {
		if !client.IsErrNotFound(err) {
			logger.WithField("container_id", containerID[:12]).WithError(err).Warn("Failed to remove container")
		}
	}
}

func (e *SDKEngine) Close() error {
	return e.cli.Close()
}

// registryAuthString creates the base64-encoded auth payload the registry API
// expects. An empty string disables authentication.
func registryAuthString(auth *RegistryAuth) (string, error) {
	if auth == nil {
		return "", nil
	}

	authConfig := registry.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		ServerAddress: auth.Host,
	}

	authJSON, err := json.Marshal(authConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth config: %w", err)
	}

	return base64.URLEncoding.EncodeToString(authJSON), nil
}

// tarDirectory packs dir into an in-memory tar archive for use as a build
// context.
func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
