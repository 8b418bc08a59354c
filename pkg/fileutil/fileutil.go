// Package fileutil implements the durable write pattern used for
// dataset outputs: stage a .tmp file, fsync, rename into place, fsync
// the directory.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nharbeck/rowio/pkg/logging"
)

// Exists reports whether path can be stat'd.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsNonEmpty reports whether path exists with non-zero size.
func IsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// WriteFileSync writes data to path and fsyncs before closing.
func WriteFileSync(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// WriteTmpThenMove has writeFunc produce the file at a temporary path
// inside tmpDir, fsyncs it, then renames it to outPath. The rename is
// atomic on POSIX filesystems, so a crash leaves either the old file
// or the new one, never a partial write. The temporary file is removed
// on any failure.
func WriteTmpThenMove(tmpDir, outPath string, writeFunc func(tmpPath string) error) error {
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return fmt.Errorf("create tmp dir: %w", err)
	}

	tmpPath := filepath.Join(tmpDir, filepath.Base(outPath)+".tmp")
	if err := stageAndRename(tmpPath, outPath, writeFunc); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// stageAndRename writes, syncs and renames. The caller removes tmpPath
// when any step fails.
func stageAndRename(tmpPath, outPath string, writeFunc func(string) error) error {
	if err := writeFunc(tmpPath); err != nil {
		return err
	}
	if err := syncFile(tmpPath); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename temp to final: %w", err)
	}
	return nil
}

// syncFile opens path and fsyncs it.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// SyncDir fsyncs a directory so renamed entries survive a crash.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// CleanupTmpFiles removes stale .tmp files under dir, left behind when
// an earlier run died between staging and rename.
func CleanupTmpFiles(dir string) error {
	var removed int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable entries, keep walking
		}
		if !d.IsDir() && strings.HasSuffix(path, ".tmp") {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})

	if removed > 0 {
		logging.L().Debug().Int("files_removed", removed).Str("dir", dir).Msg("removed stale tmp files")
	}
	return err
}
