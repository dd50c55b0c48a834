package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeCall struct {
	name string
	args []string
}

// fakeRunner replaces the external docker process in tests.
type fakeRunner struct {
	calls   []fakeCall
	outputs []string
	errs    []error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, fakeCall{name: name, args: args})

	var output string
	if i < len(f.outputs) {
		output = f.outputs[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return output, err
}

func newFakeEngine(outputs []string, errs []error) (*CLIEngine, *fakeRunner) {
	runner := &fakeRunner{outputs: outputs, errs: errs}
	return &CLIEngine{runCmd: runner.run}, runner
}

func TestCheckImageOutputParsing(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{output: "a1b2c3d4\n", want: true},
		{output: "0123456789abcdef", want: true},
		{output: "", want: false},
		{output: "\n", want: false},
		{output: "Error: no such image\n", want: false},
		{output: "A1B2C3D4\n", want: false},
		{output: "a1b2c3d4\nfeedbeef\n", want: false},
	}

	for _, tt := range tests {
		eng, _ := newFakeEngine([]string{tt.output}, nil)
		got, err := eng.CheckImage(context.Background(), "org/h2o:stable")
		if err != nil {
			t.Errorf("CheckImage(%q) returned error: %v", tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CheckImage(%q) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestCheckImageCommand(t *testing.T) {
	eng, runner := newFakeEngine([]string{""}, nil)
	eng.CheckImage(context.Background(), "org/h2o:stable")

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 command, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if call.name != "docker" {
		t.Errorf("invoked %q, want docker", call.name)
	}
	if got := strings.Join(call.args, " "); got != "images -q org/h2o:stable" {
		t.Errorf("args = %q, want %q", got, "images -q org/h2o:stable")
	}
}

func TestBuildImageArgs(t *testing.T) {
	spec := BuildSpec{
		Dockerfile: "frameworks/h2o/Dockerfile",
		ContextDir: ".",
		Tag:        "org/h2o:stable",
	}

	eng, runner := newFakeEngine(nil, nil)
	if err := eng.BuildImage(context.Background(), spec); err != nil {
		t.Fatalf("BuildImage failed: %v", err)
	}

	got := strings.Join(runner.calls[0].args, " ")
	want := "build -t org/h2o:stable -f frameworks/h2o/Dockerfile ."
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestBuildImageNoCache(t *testing.T) {
	spec := BuildSpec{
		Dockerfile: "frameworks/h2o/Dockerfile",
		ContextDir: ".",
		Tag:        "org/h2o:stable",
		NoCache:    true,
	}

	eng, runner := newFakeEngine(nil, nil)
	if err := eng.BuildImage(context.Background(), spec); err != nil {
		t.Fatalf("BuildImage failed: %v", err)
	}

	got := strings.Join(runner.calls[0].args, " ")
	if !strings.HasPrefix(got, "build --no-cache ") {
		t.Errorf("args = %q, missing --no-cache", got)
	}
}

func TestBuildImageFailure(t *testing.T) {
	eng, _ := newFakeEngine([]string{"step 5/12 failed"}, []error{fmt.Errorf("exit status 1")})

	err := eng.BuildImage(context.Background(), BuildSpec{Tag: "org/h2o:stable"})
	if err == nil {
		t.Fatal("BuildImage succeeded despite non-zero exit")
	}
	if !strings.Contains(err.Error(), "step 5/12 failed") {
		t.Errorf("build error %q does not carry the engine output", err)
	}
}

func TestRunContainerArgs(t *testing.T) {
	spec := RunSpec{
		Image:     "org/h2o:stable",
		InputDir:  "/data/input",
		OutputDir: "/data/output",
		Params:    []string{"h2o", "small", "-i", "/input", "-o", "/output", "-s", "skip"},
	}

	eng, runner := newFakeEngine([]string{"done"}, nil)
	output, err := eng.RunContainer(context.Background(), spec)
	if err != nil {
		t.Fatalf("RunContainer failed: %v", err)
	}
	if output != "done" {
		t.Errorf("output = %q, want %q", output, "done")
	}

	got := strings.Join(runner.calls[0].args, " ")
	want := "run -v /data/input:/input -v /data/output:/output --rm org/h2o:stable h2o small -i /input -o /output -s skip"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestRunContainerFailure(t *testing.T) {
	eng, _ := newFakeEngine([]string{"traceback"}, []error{fmt.Errorf("exit status 1")})

	output, err := eng.RunContainer(context.Background(), RunSpec{Image: "org/h2o:stable"})
	if err == nil {
		t.Fatal("RunContainer succeeded despite non-zero exit")
	}
	if output != "traceback" {
		t.Errorf("captured output = %q, want the combined process output", output)
	}
}

func TestPushImageWithAuth(t *testing.T) {
	auth := &RegistryAuth{Host: "registry.example.com", Username: "user", Password: "secret"}

	eng, runner := newFakeEngine(nil, nil)
	if err := eng.PushImage(context.Background(), "org/h2o:stable", auth); err != nil {
		t.Fatalf("PushImage failed: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected login then push, got %d commands", len(runner.calls))
	}
	if runner.calls[0].args[0] != "login" {
		t.Errorf("first command %v, want login", runner.calls[0].args)
	}
	if got := strings.Join(runner.calls[1].args, " "); got != "push org/h2o:stable" {
		t.Errorf("second command %q, want push", got)
	}
}

func TestPushImageWithoutAuth(t *testing.T) {
	eng, runner := newFakeEngine(nil, nil)
	if err := eng.PushImage(context.Background(), "org/h2o:stable", nil); err != nil {
		t.Fatalf("PushImage failed: %v", err)
	}

	if len(runner.calls) != 1 || runner.calls[0].args[0] != "push" {
		t.Errorf("expected a single push command, got %v", runner.calls)
	}
}
