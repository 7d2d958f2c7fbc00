package planfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vk/buildplan/internal/unit"
)

// yamlPlanFile is the top-level structure of a YAML plan file.
type yamlPlanFile struct {
	Units []yamlUnit `yaml:"units"`
}

// yamlUnit is the schema of one unit entry in a YAML plan file.
type yamlUnit struct {
	Name      string                 `yaml:"name"`
	ID        string                 `yaml:"id"`
	Version   string                 `yaml:"version"`
	Installed bool                   `yaml:"installed"`
	DependsOn []string               `yaml:"depends_on"`
	Metadata  map[string]interface{} `yaml:"metadata"`
}

// loadYAML parses one YAML plan file into units.
func loadYAML(file string) ([]unit.Unit, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var parsed yamlPlanFile
	if err := yaml.UnmarshalStrict(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode plan file %s: %w", file, err)
	}

	units := make([]unit.Unit, 0, len(parsed.Units))
	for _, yu := range parsed.Units {
		var metadata any
		if yu.Metadata != nil {
			metadata = yu.Metadata
		}
		u, err := normalizeUnit(file, yu.Name, yu.ID, yu.Version, yu.Installed, yu.DependsOn, metadata)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}
