package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed templates/*.yml
var composeTemplates embed.FS

// WriteComposeFiles materializes the bundled compose base and overlay files
// under dir. Existing files are overwritten; install owns this path.
func WriteComposeFiles(dir string) error {
	entries, err := composeTemplates.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("read compose templates: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	for _, entry := range entries {
		data, err := composeTemplates.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", entry.Name(), err)
		}
	}
	return nil
}
