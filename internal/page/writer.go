package page

import (
	"os"
	"path/filepath"

	"pagekit/internal/errors"
)

// Writer persists a rendered page.
type Writer interface {
	Write(data []byte, destDir, fileName string) error
}

// FileWriter writes pages to the local filesystem.
type FileWriter struct{}

// Write creates destDir (and any directory in fileName) as needed and
// overwrites destDir/fileName. A failed write is not cleaned up.
func (FileWriter) Write(data []byte, destDir, fileName string) error {
	outPath := filepath.Join(destDir, fileName)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to create destination directory").
			WithDetail("path", filepath.Dir(outPath))
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write page").
			WithDetail("path", outPath)
	}
	return nil
}
