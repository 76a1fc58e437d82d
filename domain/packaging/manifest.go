package packaging

import (
	"fmt"
	"os"

	"github.com/soocke/hitlabel-go/domain/dataset"
	"gopkg.in/yaml.v3"
)

// Manifest is the dataset.yaml consumed by the trainer.
type Manifest struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

// NewManifest returns a manifest training and validating on the same
// images directory with every class named.
func NewManifest(path string) Manifest {
	names := make(map[int]string, len(dataset.Classes))
	for _, c := range dataset.Classes {
		names[int(c)] = c.String()
	}
	return Manifest{Path: path, Train: imagesDir, Val: imagesDir, Names: names}
}

// WriteManifest encodes m to file.
func WriteManifest(file string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest decodes a dataset.yaml.
func ReadManifest(file string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(file)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
