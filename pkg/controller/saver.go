package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yumyai/genepanel/internal/util"
	"github.com/yumyai/genepanel/pkg/model"
)

// FileSaver writes payloads into Dir under their own filename. An existing
// file is replaced.
type FileSaver struct {
	Dir string
}

func (s FileSaver) Save(ctx context.Context, blob *model.Blob) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if !util.DirExists(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	dest := filepath.Join(dir, filepath.Base(blob.Filename))
	tmpPath := dest + ".tmp"

	if err := os.WriteFile(tmpPath, blob.Data, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write file: %w", err)
	}

	// Rename temp file to final destination
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}

// Path is where blob would be written.
func (s FileSaver) Path(blob *model.Blob) string {
	return filepath.Join(s.Dir, filepath.Base(blob.Filename))
}
