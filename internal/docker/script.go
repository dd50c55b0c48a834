package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/logging"
)

// The image embeds the benchmark app itself so that tasks later run in local
// mode inside the container, importing config and exporting results through
// the mounted folders. Framework dependencies are installed into a dedicated
// virtual environment so they cannot collide with the app's own dependencies.
const dockerfileTemplate = `FROM ubuntu:18.04

RUN apt-get update
RUN apt-get install -y curl wget unzip git
RUN apt-get install -y python3 python3-pip python3-venv
RUN pip3 install --upgrade pip

ENV PIP /venvs/bench/bin/pip3
ENV PY /venvs/bench/bin/python3 -W ignore
ENV SPIP pip3
ENV SPY python3

RUN $SPY -m venv /venvs/bench
RUN $PIP install --upgrade pip

WORKDIR /bench
VOLUME /input
VOLUME /output

ADD . /bench/

RUN $PIP install --no-cache-dir -r requirements.txt --process-dependency-links
RUN $PIP install --no-cache-dir openml

{{.CustomCommands}}

ENTRYPOINT ["/bin/bash", "-c", "$PY {{.Script}} $0 $*"]
CMD ["{{.Framework}}", "test"]
`

var dockerfileTmpl = template.Must(template.New("dockerfile").Parse(dockerfileTemplate))

// ScriptPath is the deterministic location of a framework's build descriptor.
func (b *Benchmark) ScriptPath() string {
	return filepath.Join(b.framework.Dir, "Dockerfile")
}

// GenerateScript renders the build descriptor for the framework, injecting
// customCommands verbatim after the core dependency installation, and
// overwrites any existing descriptor at the framework's deterministic path.
func (b *Benchmark) GenerateScript(customCommands string) (string, error) {
	logger := logging.GetLogger()

	path := b.ScriptPath()

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write docker script %s: %w", path, err)
	}
	defer file.Close()

	data := struct {
		CustomCommands string
		Framework      string
		Script         string
	}{
		CustomCommands: customCommands,
		Framework:      b.framework.Name,
		Script:         b.cfg.Script,
	}

	if err := dockerfileTmpl.Execute(file, data); err != nil {
		return "", fmt.Errorf("write docker script %s: %w", path, err)
	}

	logger.WithField("script", path).Debug("Generated docker script")
	return path, nil
}
