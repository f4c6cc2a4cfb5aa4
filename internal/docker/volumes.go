package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

const volumeArchiveTimeout = 15 * time.Minute

const helperImage = "alpine:3"

// ExportVolume archives the contents of a named volume into destDir as
// <volume>.tar or <volume>.tar.gz. It runs a throwaway helper container so
// volume contents are read through the engine, not the host filesystem.
func (c *Client) ExportVolume(ctx context.Context, volumeName, destDir string, compress bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, volumeArchiveTimeout)
	defer cancel()

	archive := volumeName + ".tar"
	tarFlags := "-cf"
	if compress {
		archive += ".gz"
		tarFlags = "-czf"
	}

	args := []string{
		"run", "--rm",
		"-v", volumeName + ":/source:ro",
		"-v", destDir + ":/backup",
		helperImage,
		"tar", tarFlags, "/backup/" + archive, "-C", "/source", ".",
	}

	c.logger.Info().Str("volume", volumeName).Str("archive", archive).Msg("exporting volume")
	out, err := c.cli.Run(ctx, "", args)
	if err != nil {
		return "", fmt.Errorf("export volume %s: %w: %s", volumeName, err, condense(out))
	}
	return filepath.Join(destDir, archive), nil
}

// ImportVolume restores a volume from an archive produced by ExportVolume.
// The target volume is created by the engine if absent and its prior
// contents are replaced.
func (c *Client) ImportVolume(ctx context.Context, volumeName, archivePath string) error {
	ctx, cancel := context.WithTimeout(ctx, volumeArchiveTimeout)
	defer cancel()

	dir := filepath.Dir(archivePath)
	name := filepath.Base(archivePath)
	tarFlags := "-xf"
	if filepath.Ext(name) == ".gz" {
		tarFlags = "-xzf"
	}

	args := []string{
		"run", "--rm",
		"-v", volumeName + ":/target",
		"-v", dir + ":/backup:ro",
		helperImage,
		"sh", "-c",
		fmt.Sprintf("rm -rf /target/* && tar %s /backup/%s -C /target", tarFlags, name),
	}

	c.logger.Info().Str("volume", volumeName).Str("archive", name).Msg("importing volume")
	out, err := c.cli.Run(ctx, "", args)
	if err != nil {
		return fmt.Errorf("import volume %s: %w: %s", volumeName, err, condense(out))
	}
	return nil
}
