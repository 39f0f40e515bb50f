package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScanMatchesPatternAndSkipsOthers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "b.log"), "world")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "nested")

	files, err := Scan(dir, "*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 matching files, got %d: %v", len(files), files)
	}
	if _, ok := files["a.txt"]; !ok {
		t.Error("expected a.txt in results")
	}
	if _, ok := files[filepath.ToSlash(filepath.Join("sub", "c.txt"))]; !ok {
		t.Error("expected sub/c.txt in results")
	}
	if _, ok := files["b.log"]; ok {
		t.Error("did not expect b.log in results")
	}
}

func TestScanDefaultsToStarPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "anything.bin"), "data")

	files, err := Scan(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file with default pattern, got %d", len(files))
	}
}

func TestScanMissingFolderReturnsEmptyMap(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"), "*")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty map for missing folder, got %d entries", len(files))
	}
}

func TestScanRecordsSizeAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sized.txt")
	writeFile(t, path, "0123456789")

	files, err := Scan(dir, "*")
	if err != nil {
		t.Fatal(err)
	}
	stat, ok := files["sized.txt"]
	if !ok {
		t.Fatal("expected sized.txt in results")
	}
	if stat.Size != 10 {
		t.Fatalf("expected size 10, got %d", stat.Size)
	}
	if time.Since(time.Unix(0, int64(stat.Mtime*1e9))) > time.Minute {
		t.Fatalf("mtime looks wrong: %v", stat.Mtime)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
