package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Path returns where f is written. Relative package directories are resolved
// against root; files without a directory go to root itself.
func (f GeneratedFile) Path(root string) string {
	dir := f.Dir

	switch {
	case dir == "":
		dir = root
	case !filepath.IsAbs(dir):
		dir = filepath.Join(root, dir)
	}

	return filepath.Join(dir, f.Filename)
}

// WriteFiles writes all generated files, creating package directories as
// needed.
func WriteFiles(files []GeneratedFile, root string) error {
	for _, file := range files {
		outputPath := file.Path(root)

		if err := os.MkdirAll(filepath.Dir(outputPath), dirPerm); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		if err := os.WriteFile(outputPath, file.Content, filePerm); err != nil {
			return fmt.Errorf("writing file %s: %w", outputPath, err)
		}
	}

	return nil
}
