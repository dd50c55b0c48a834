package resources

// DockerImage holds the image coordinates of a framework's container image.
type DockerImage struct {
	Author string `yaml:"author"`
	Image  string `yaml:"image"`
	Tag    string `yaml:"tag"`
}

// FrameworkDefinition describes one AutoML framework known to the benchmark.
// Definitions are read-only once loaded.
type FrameworkDefinition struct {
	Name           string      `yaml:"-"`
	Version        string      `yaml:"version"`
	Project        string      `yaml:"project"`
	Dir            string      `yaml:"dir"`
	DockerImage    DockerImage `yaml:"docker_image"`
	DockerCommands string      `yaml:"docker_commands"`
}

// TaskDefinition is one named task of a benchmark with its number of
// cross-validation folds.
type TaskDefinition struct {
	Name  string `yaml:"name"`
	ID    string `yaml:"id"`
	Folds int    `yaml:"folds"`
}

// BenchmarkDefinition is a named set of tasks.
type BenchmarkDefinition struct {
	Name  string           `yaml:"-"`
	Tasks []TaskDefinition `yaml:"-"`
}
