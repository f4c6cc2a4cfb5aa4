package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// Project is the merged view of the base compose file plus the selected
// platform overlays.
type Project struct {
	Name     string
	Files    []string
	Services map[string]Service
}

// Service captures the compose fields the orchestrator cares about.
type Service struct {
	Image   string
	Ports   []PortMapping
	Volumes []string
}

// PortMapping pairs a container port with its published host port.
type PortMapping struct {
	ContainerPort string
	HostPort      string
}

// LoadProject parses and merges the given compose files in order. Later
// files override earlier ones, matching docker compose overlay semantics.
func LoadProject(ctx context.Context, projectName string, paths []string) (Project, error) {
	if len(paths) == 0 {
		return Project{}, errors.New("no compose files given")
	}

	configFiles := make([]types.ConfigFile, 0, len(paths))
	for _, path := range paths {
		body, err := os.ReadFile(path)
		if err != nil {
			return Project{}, fmt.Errorf("read compose file: %w", err)
		}
		configFiles = append(configFiles, types.ConfigFile{
			Filename: path,
			Content:  body,
		})
	}

	details := types.ConfigDetails{
		WorkingDir:  filepath.Dir(paths[0]),
		ConfigFiles: configFiles,
		Environment: types.Mapping(envMapping()),
	}

	project, err := loader.LoadWithContext(ctx, details, func(opts *loader.Options) {
		opts.SetProjectName(projectName, false)
		opts.SkipValidation = true
	})
	if err != nil {
		return Project{}, fmt.Errorf("load compose: %w", err)
	}
	if len(project.Services) == 0 {
		return Project{}, errors.New("compose project has no services")
	}

	result := Project{
		Name:     projectName,
		Files:    append([]string(nil), paths...),
		Services: make(map[string]Service, len(project.Services)),
	}

	for name, svc := range project.Services {
		entry := Service{Image: svc.Image}
		for _, port := range svc.Ports {
			entry.Ports = append(entry.Ports, PortMapping{
				ContainerPort: fmt.Sprintf("%d", port.Target),
				HostPort:      port.Published,
			})
		}
		for _, vol := range svc.Volumes {
			if vol.Type == types.VolumeTypeVolume && vol.Source != "" {
				entry.Volumes = append(entry.Volumes, vol.Source)
			}
		}
		sort.Strings(entry.Volumes)
		result.Services[name] = entry
	}

	return result, nil
}

// ServiceNames returns the merged service names in sorted order.
func (p Project) ServiceNames() []string {
	names := make([]string, 0, len(p.Services))
	for name := range p.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VolumeNames returns the named volumes referenced by any service, sorted
// and deduplicated.
func (p Project) VolumeNames() []string {
	seen := make(map[string]bool)
	for _, svc := range p.Services {
		for _, vol := range svc.Volumes {
			seen[vol] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func envMapping() map[string]string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				env[entry[:i]] = entry[i+1:]
				break
			}
		}
	}
	return env
}
