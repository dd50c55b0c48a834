package docker

import (
	"fmt"
	"strings"

	"github.com/NanaAkwasiAbayieBoateng/automlbenchmark/internal/resources"
)

// ImageName derives the tagged image reference for a framework. It is a pure
// function of the definition: when no image name is set, the lower-cased
// framework name is used.
func ImageName(def *resources.FrameworkDefinition) string {
	image := def.DockerImage.Image
	if image == "" {
		image = strings.ToLower(def.Name)
	}
	return fmt.Sprintf("%s/%s:%s", def.DockerImage.Author, image, def.DockerImage.Tag)
}
