// Package engine defines the narrow port to the local container engine.
// Orchestration code only ever talks to this interface so the binding can be
// swapped or mocked without touching callers.
package engine

import (
	"context"
	"fmt"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/config"
)

// BuildSpec describes one image build.
type BuildSpec struct {
	Dockerfile string
	ContextDir string
	Tag        string
	NoCache    bool
}

// RunSpec describes one synchronous container run. InputDir is mounted at
// /input, OutputDir at /output, and Params are the in-container command line.
type RunSpec struct {
	Image     string
	InputDir  string
	OutputDir string
	Params    []string
}

// RegistryAuth carries registry credentials for image publishing.
type RegistryAuth struct {
	Host     string
	Username string
	Password string
}

type Engine interface {
	// CheckImage reports whether an image tagged ref exists locally.
	// Ambiguous engine output means "does not exist", never an error.
	CheckImage(ctx context.Context, ref string) (bool, error)

	// BuildImage builds and tags an image. A failed build is returned with
	// the captured engine output; it is never retried here.
	BuildImage(ctx context.Context, spec BuildSpec) error

	// PushImage publishes ref to its registry, authenticating when auth is
	// non-nil.
	PushImage(ctx context.Context, ref string, auth *RegistryAuth) error

	// RunContainer runs one container to completion with auto-removal and
	// returns its combined output. A non-zero exit is an error.
	RunContainer(ctx context.Context, spec RunSpec) (string, error)

	Close() error
}

// New creates the engine binding selected by the configuration.
func New(cfg config.EngineConfig) (Engine, error) {
	switch cfg.Binding {
	case config.BindingCLI:
		return NewCLIEngine(), nil
	case config.BindingSDK:
		return NewSDKEngine()
	default:
		return nil, fmt.Errorf("unknown engine binding %q", cfg.Binding)
	}
}

// Auth converts the configured registry credentials, if any.
func Auth(cfg *config.RegistryConfig) *RegistryAuth {
	if cfg == nil {
		return nil
	}
	return &RegistryAuth{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}
