// Package planfile loads serialized install plans into unit lists. Plans
// are written as HCL `unit` blocks or as YAML documents; a path may point at
// a single file or a directory that is searched recursively.
//
// The loader only deals with syntax and per-unit shape. Structural problems
// (duplicate IDs, missing references, cycles) are the graph builder's and
// validator's business.
package planfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/buildplan/internal/ctxlog"
	"github.com/vk/buildplan/internal/unit"
)

// Loader turns serialized plan files into units.
type Loader interface {
	Load(ctx context.Context, paths ...string) ([]unit.Unit, error)
}

// FileLoader is the default Loader. It dispatches on file extension: .hcl
// files go through the HCL decoder, .yaml/.yml through the YAML decoder.
type FileLoader struct{}

// NewLoader creates a FileLoader.
func NewLoader() *FileLoader {
	return &FileLoader{}
}

// Load reads every plan file reachable from the given paths and returns the
// concatenated unit list. Files inside a directory are visited in walk
// order, which is lexical, so the result is deterministic.
func (l *FileLoader) Load(ctx context.Context, paths ...string) ([]unit.Unit, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		found, err := findPlanFiles(path)
		if err != nil {
			return nil, fmt.Errorf("failed to find plan files in %s: %w", path, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no plan files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Loading plan files.", "count", len(files))

	var units []unit.Unit
	for _, file := range files {
		var (
			loaded []unit.Unit
			err    error
		)
		switch strings.ToLower(filepath.Ext(file)) {
		case ".hcl":
			loaded, err = loadHCL(file)
		case ".yaml", ".yml":
			loaded, err = loadYAML(file)
		default:
			err = fmt.Errorf("unsupported plan file extension: %s", file)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("Plan file loaded.", "file", file, "units", len(loaded))
		units = append(units, loaded...)
	}
	return units, nil
}

// normalizeUnit applies defaults and per-unit shape checks shared by both
// formats. The unit ID defaults to the package's "name-version" string.
func normalizeUnit(file, name, id, version string, installed bool, deps []string, metadata any) (unit.Unit, error) {
	if name == "" {
		return unit.Unit{}, fmt.Errorf("%s: unit with blank name", file)
	}
	pkg := unit.PackageID{Name: name, Version: version}
	if id == "" {
		id = pkg.String()
	}

	kind := unit.KindConfigured
	if installed {
		kind = unit.KindPreExisting
	}

	depIDs := make([]unit.ID, 0, len(deps))
	for _, d := range deps {
		if d == "" {
			return unit.Unit{}, fmt.Errorf("%s: unit %q declares a blank dependency", file, id)
		}
		depIDs = append(depIDs, unit.ID(d))
	}

	return unit.Unit{
		ID:       unit.ID(id),
		Package:  pkg,
		Kind:     kind,
		Deps:     depIDs,
		Metadata: metadata,
	}, nil
}
