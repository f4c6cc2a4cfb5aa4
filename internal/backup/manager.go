package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/compose"
)

const (
	volumesSubdir    = "volumes"
	configSubdir     = "config"
	extensionsSubdir = "extensions"

	configFileName = "config.yaml"
)

// ErrNoTargets is returned when a backup is requested with every target
// category deselected.
var ErrNoTargets = errors.New("no backup targets selected")

// Targets selects which categories a backup or restore covers.
type Targets struct {
	Volumes    bool
	Config     bool
	Extensions bool
}

// None reports whether no category is selected.
func (t Targets) None() bool {
	return !t.Volumes && !t.Config && !t.Extensions
}

// CreateOptions parameterizes a backup.
type CreateOptions struct {
	Targets     Targets
	OutputDir   string
	Compress    bool
	Description string
	VolumeNames []string
}

// volumeArchiver is the slice of the engine client the backup manager needs.
type volumeArchiver interface {
	ExportVolume(ctx context.Context, volumeName, destDir string, compress bool) (string, error)
	ImportVolume(ctx context.Context, volumeName, archivePath string) error
}

// Manager captures and restores point-in-time stack archives.
type Manager struct {
	logger       zerolog.Logger
	archiver     volumeArchiver
	configDir    string
	stackVersion string
	platform     string
}

// NewManager constructs a backup manager rooted at the given config dir.
func NewManager(logger zerolog.Logger, archiver volumeArchiver, configDir, stackVersion, platform string) *Manager {
	return &Manager{
		logger:       logger,
		archiver:     archiver,
		configDir:    configDir,
		stackVersion: stackVersion,
		platform:     platform,
	}
}

// Create writes a backup under opts.OutputDir. All payload entries are
// written before the manifest; a failure at any point leaves no manifest
// behind, so the directory is recognizably incomplete.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (Manifest, error) {
	if opts.Targets.None() {
		return Manifest{}, ErrNoTargets
	}
	if opts.OutputDir == "" {
		return Manifest{}, errors.New("output directory is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create backup dir: %w", err)
	}

	manifest := Manifest{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		StackVersion:       m.stackVersion,
		Platform:           m.platform,
		IncludedConfig:     opts.Targets.Config,
		IncludedExtensions: opts.Targets.Extensions,
		Compressed:         opts.Compress,
		Description:        opts.Description,
	}

	if opts.Targets.Volumes {
		volumeDir := filepath.Join(opts.OutputDir, volumesSubdir)
		if err := os.MkdirAll(volumeDir, 0o755); err != nil {
			return Manifest{}, fmt.Errorf("create volume dir: %w", err)
		}
		for _, name := range opts.VolumeNames {
			if _, err := m.archiver.ExportVolume(ctx, name, volumeDir, opts.Compress); err != nil {
				return Manifest{}, err
			}
			manifest.IncludedVolumes = append(manifest.IncludedVolumes, name)
		}
	}

	if opts.Targets.Config {
		fingerprint, err := m.copyConfig(filepath.Join(opts.OutputDir, configSubdir))
		if err != nil {
			return Manifest{}, err
		}
		manifest.ConfigFingerprint = fingerprint
	}

	if opts.Targets.Extensions {
		src := filepath.Join(m.configDir, extensionsSubdir)
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			// A fresh install has no extensions directory; there is
			// nothing to capture.
			manifest.IncludedExtensions = false
		} else if err != nil {
			return Manifest{}, fmt.Errorf("stat extensions: %w", err)
		} else {
			dst := filepath.Join(opts.OutputDir, extensionsSubdir)
			if err := copyTree(src, dst); err != nil {
				return Manifest{}, fmt.Errorf("copy extensions: %w", err)
			}
		}
	}

	if err := WriteManifest(opts.OutputDir, manifest); err != nil {
		return Manifest{}, err
	}

	m.logger.Info().Str("backup_id", manifest.ID).Str("dir", opts.OutputDir).Msg("backup complete")
	return manifest, nil
}

// Validate reads the manifest and verifies every declared payload entry is
// present. It performs no mutation; restore refuses to proceed unless
// validation passes.
func (m *Manager) Validate(dir string) (Manifest, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return Manifest{}, err
	}

	for _, name := range manifest.IncludedVolumes {
		if _, err := os.Stat(volumeArchivePath(dir, name, manifest.Compressed)); err != nil {
			return Manifest{}, fmt.Errorf("manifest declares volume %q but its archive is missing", name)
		}
	}

	if manifest.IncludedConfig {
		payload := filepath.Join(dir, configSubdir, configFileName)
		data, err := os.ReadFile(payload)
		if err != nil {
			return Manifest{}, errors.New("manifest declares config but its payload is missing")
		}
		if manifest.ConfigFingerprint != "" && !compose.Verify(data, manifest.ConfigFingerprint) {
			return Manifest{}, errors.New("config payload does not match manifest fingerprint")
		}
	}

	if manifest.IncludedExtensions {
		if _, err := os.Stat(filepath.Join(dir, extensionsSubdir)); err != nil {
			return Manifest{}, errors.New("manifest declares extensions but their payload is missing")
		}
	}

	return manifest, nil
}

// Restore applies a validated backup. Targets narrows the restore to a
// subset of what the backup contains.
func (m *Manager) Restore(ctx context.Context, dir string, targets Targets) (Manifest, error) {
	manifest, err := m.Validate(dir)
	if err != nil {
		return Manifest{}, err
	}

	if targets.Volumes {
		for _, name := range manifest.IncludedVolumes {
			archive := volumeArchivePath(dir, name, manifest.Compressed)
			if err := m.archiver.ImportVolume(ctx, name, archive); err != nil {
				return Manifest{}, err
			}
		}
	}

	if targets.Config && manifest.IncludedConfig {
		if err := copyTree(filepath.Join(dir, configSubdir), m.configDir); err != nil {
			return Manifest{}, fmt.Errorf("restore config: %w", err)
		}
	}

	if targets.Extensions && manifest.IncludedExtensions {
		dst := filepath.Join(m.configDir, extensionsSubdir)
		if err := copyTree(filepath.Join(dir, extensionsSubdir), dst); err != nil {
			return Manifest{}, fmt.Errorf("restore extensions: %w", err)
		}
	}

	m.logger.Info().Str("backup_id", manifest.ID).Msg("restore complete")
	return manifest, nil
}

// copyConfig copies regular files from the config root (not subdirectories,
// which hold backups and extension data) and returns the fingerprint of the
// main config file.
func (m *Manager) copyConfig(dst string) (string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("create config backup dir: %w", err)
	}

	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return "", fmt.Errorf("read config dir: %w", err)
	}

	var fingerprint string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(m.configDir, entry.Name())
		if err := copyFile(src, filepath.Join(dst, entry.Name())); err != nil {
			return "", fmt.Errorf("copy %s: %w", entry.Name(), err)
		}
		if entry.Name() == configFileName {
			data, err := os.ReadFile(src)
			if err == nil {
				fingerprint, _ = compose.Fingerprint(data)
			}
		}
	}
	return fingerprint, nil
}

func volumeArchivePath(dir, volume string, compressed bool) string {
	name := volume + ".tar"
	if compressed {
		name += ".gz"
	}
	return filepath.Join(dir, volumesSubdir, name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}
