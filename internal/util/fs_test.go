package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTextAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.extracted.txt")
	if err := WriteTextAtomic(path, "first"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTextAtomic(path, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "second" {
		t.Fatalf("unexpected content %q err=%v", b, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

func TestSafeJoin(t *testing.T) {
	if got := SafeJoin("/uploads", "../../etc/passwd"); got != filepath.Join("/uploads", "passwd") {
		t.Fatalf("unexpected join %q", got)
	}
}

func TestRegularFileExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if RegularFileExists(p) {
		t.Fatalf("missing file reported as present")
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !RegularFileExists(p) {
		t.Fatalf("expected file to exist")
	}
	if RegularFileExists(dir) {
		t.Fatalf("directory reported as regular file")
	}
}
