package planfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/buildplan/internal/unit"
)

// hclUnit is the schema of one `unit` block in an HCL plan file.
type hclUnit struct {
	Name      string         `hcl:"name,label"`
	ID        string         `hcl:"id,optional"`
	Version   string         `hcl:"version,optional"`
	Installed bool           `hcl:"installed,optional"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Metadata  hcl.Expression `hcl:"metadata,optional"`
}

// hclPlanFile is the top-level structure of an HCL plan file.
type hclPlanFile struct {
	Units []*hclUnit `hcl:"unit,block"`
}

// loadHCL parses one HCL plan file into units.
func loadHCL(file string) ([]unit.Unit, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", file, diags)
	}

	var parsed hclPlanFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode plan file %s: %w", file, diags)
	}

	units := make([]unit.Unit, 0, len(parsed.Units))
	for _, hu := range parsed.Units {
		metadata, err := evalMetadata(hu.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%s: unit %q: %w", file, hu.Name, err)
		}
		u, err := normalizeUnit(file, hu.Name, hu.ID, hu.Version, hu.Installed, hu.DependsOn, metadata)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// evalMetadata evaluates the optional metadata expression. Plan files carry
// literal metadata only, so evaluation uses an empty context.
func evalMetadata(expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate metadata: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	metadata, err := ctyToGo(val)
	if err != nil {
		return nil, fmt.Errorf("unsupported metadata value: %w", err)
	}
	return metadata, nil
}
