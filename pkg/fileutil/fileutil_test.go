package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()

	if Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists(missing) = true")
	}

	path := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("Exists(present) = false")
	}
}

func TestIsNonEmpty(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	full := filepath.Join(dir, "full.txt")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "missing"), false},
		{empty, false},
		{full, true},
	}
	for _, tt := range tests {
		if got := IsNonEmpty(tt.path); got != tt.want {
			t.Errorf("IsNonEmpty(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
	}
}

func TestWriteFileSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	want := []byte(`{"version":1}`)
	if err := WriteFileSync(path, want); err != nil {
		t.Fatalf("WriteFileSync failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestSyncDir(t *testing.T) {
	dir := t.TempDir()
	if err := SyncDir(dir); err != nil {
		t.Fatalf("SyncDir failed: %v", err)
	}
	if err := SyncDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("SyncDir(missing) succeeded, want error")
	}
}

func TestWriteTmpThenMove(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(t.TempDir(), "out", "data.npy")

	want := []byte("payload")
	err := WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		return os.WriteFile(tmpPath, want, 0644)
	})
	if err != nil {
		t.Fatalf("WriteTmpThenMove failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("content = %q, want %q", got, want)
	}

	if Exists(filepath.Join(tmpDir, "data.npy.tmp")) {
		t.Error("staging file survived a successful move")
	}
}

func TestWriteTmpThenMoveFailure(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(t.TempDir(), "data.npy")

	fail := errors.New("disk full")
	err := WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		if werr := os.WriteFile(tmpPath, []byte("partial"), 0644); werr != nil {
			return werr
		}
		return fail
	})
	if !errors.Is(err, fail) {
		t.Fatalf("WriteTmpThenMove = %v, want wrapped write error", err)
	}

	if Exists(filepath.Join(tmpDir, "data.npy.tmp")) {
		t.Error("staging file survived a failed write")
	}
	if Exists(outPath) {
		t.Error("output file appeared despite failed write")
	}
}

func TestCleanupTmpFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	stale1 := filepath.Join(dir, "a.npy.tmp")
	stale2 := filepath.Join(dir, "sub", "b.csv.tmp")
	keep := filepath.Join(dir, "manifest.json")
	for _, path := range []string{stale1, stale2, keep} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CleanupTmpFiles(dir); err != nil {
		t.Fatalf("CleanupTmpFiles failed: %v", err)
	}

	for _, path := range []string{stale1, stale2} {
		if Exists(path) {
			t.Errorf("%s survived cleanup", filepath.Base(path))
		}
	}
	if !Exists(keep) {
		t.Error("non-tmp file was removed")
	}
}
