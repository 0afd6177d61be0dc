package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirAndFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "genes.fasta")
	if err := os.WriteFile(file, []byte(">GeneA\nAAA\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !DirExists(dir) {
		t.Fatalf("expected %s to be a directory", dir)
	}
	if DirExists(file) {
		t.Fatalf("file reported as directory")
	}
	if !FileExists(file) {
		t.Fatalf("expected %s to exist", file)
	}
	if FileExists(dir) || FileExists(filepath.Join(dir, "missing")) {
		t.Fatalf("FileExists should be false for directories and missing paths")
	}
}
