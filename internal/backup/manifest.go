package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestFileName = "manifest.json"

// Manifest is the integrity record accompanying a backup payload. It is
// written last, after all payload writes succeed, so its presence is itself
// evidence of a complete backup.
type Manifest struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	StackVersion       string    `json:"stack_version"`
	Platform           string    `json:"platform"`
	IncludedVolumes    []string  `json:"included_volumes"`
	IncludedConfig     bool      `json:"included_config"`
	IncludedExtensions bool      `json:"included_extensions"`
	Compressed         bool      `json:"compressed"`
	Description        string    `json:"description,omitempty"`
	ConfigFingerprint  string    `json:"config_fingerprint,omitempty"`
}

// ErrNoManifest marks a backup directory without a manifest, which means the
// backup never completed.
var ErrNoManifest = errors.New("backup manifest not found")

// WriteManifest writes the manifest atomically into dir.
func WriteManifest(dir string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(dir, manifestFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from dir in full. A missing file returns
// ErrNoManifest; a corrupt file is an error, never a partial manifest.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, ErrNoManifest
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.CreatedAt.IsZero() {
		return Manifest{}, errors.New("manifest missing created_at")
	}
	return manifest, nil
}
