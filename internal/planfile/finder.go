package planfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// planExtensions are the file suffixes the loader recognizes.
var planExtensions = []string{".hcl", ".yaml", ".yml"}

// findPlanFiles resolves a path into the list of plan files beneath it. A
// regular file is returned as-is; a directory is walked recursively for
// files with a recognized extension.
func findPlanFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range planExtensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
