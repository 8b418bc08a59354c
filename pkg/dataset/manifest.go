package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/nharbeck/rowio/pkg/fileutil"
	"github.com/nharbeck/rowio/pkg/record"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// ManifestName is the file the manifest is stored under.
const ManifestName = "manifest.json"

// Manifest describes the contents of a dataset directory.
type Manifest struct {
	Version   int                 `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	Name      string              `json:"name"`
	Schema    string              `json:"schema"`
	Records   uint64              `json:"records"`
	Files     map[string]FileInfo `json:"files"`
}

// FileInfo describes a single file in the dataset.
type FileInfo struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // SHA-256 hex
}

// RecordSchema parses the manifest's schema string.
func (m *Manifest) RecordSchema() (record.Schema, error) {
	return record.ParseSchema(m.Schema)
}

// writeManifest creates a manifest covering the named files in dir.
func writeManifest(dir, name string, schema record.Schema, records uint64, files []string) error {
	manifest := Manifest{
		Version:   ManifestVersion,
		CreatedAt: time.Now().UTC(),
		Name:      name,
		Schema:    schema.String(),
		Records:   records,
		Files:     make(map[string]FileInfo, len(files)),
	}

	for _, fname := range files {
		path := filepath.Join(dir, fname)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", fname, err)
		}

		checksum, err := checksumFile(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", fname, err)
		}

		manifest.Files[fname] = FileInfo{
			Size:     info.Size(),
			Checksum: checksum,
		}
	}

	data, err := gojson.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	manifestPath := filepath.Join(dir, ManifestName)
	err = fileutil.WriteTmpThenMove(dir, manifestPath, func(tmpPath string) error {
		return fileutil.WriteFileSync(tmpPath, data)
	})
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return fileutil.SyncDir(dir)
}

// ReadManifest reads the manifest from the dataset directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := gojson.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &manifest, nil
}

// VerifyManifest checks that all files match their recorded sizes and
// checksums.
func VerifyManifest(dir string, manifest *Manifest) error {
	for name, info := range manifest.Files {
		path := filepath.Join(dir, name)

		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}

		if stat.Size() != info.Size {
			return fmt.Errorf("file %s: size mismatch (got %d, want %d)",
				name, stat.Size(), info.Size)
		}

		checksum, err := checksumFile(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}

		if checksum != info.Checksum {
			return fmt.Errorf("file %s: checksum mismatch", name)
		}
	}

	return nil
}

// checksumFile computes the SHA-256 checksum of a file.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
