package platform

import (
	"fmt"
	"sort"
)

// ExecutionType distinguishes container-managed services from services that
// run as host processes.
type ExecutionType string

const (
	ExecutionDocker ExecutionType = "docker"
	ExecutionNative ExecutionType = "native-process"
)

// ServiceDefinition describes one logical stack service. ExecutionType is
// assigned by Classify and must never be hand-edited downstream.
type ServiceDefinition struct {
	Name           string        `yaml:"name"`
	ExecutionType  ExecutionType `yaml:"-"`
	ComposeService string        `yaml:"compose_service,omitempty"`
	HealthEndpoint string        `yaml:"health_endpoint,omitempty"`
	ProcessPattern string        `yaml:"process_pattern,omitempty"`
}

// Classification is the result of partitioning the configured service set
// for one platform.
type Classification struct {
	Services     map[string]ServiceDefinition
	DockerNames  []string
	NativeNames  []string
	OverlayFiles []string
}

// policy captures everything that varies per platform: which services leave
// the engine and run natively, and which compose overlay files apply. This
// table is the single source of truth for overlay selection.
type policy struct {
	nativeServices map[string]bool
	overlayFiles   []string
}

const baseComposeFile = "docker-compose.yml"

var platformPolicies = map[Platform]policy{
	AppleSilicon: {
		nativeServices: map[string]bool{"ollama": true},
		overlayFiles:   []string{baseComposeFile, "docker-compose.apple.yml"},
	},
	NvidiaGPU: {
		nativeServices: map[string]bool{},
		overlayFiles:   []string{baseComposeFile, "docker-compose.nvidia.yml"},
	},
	CPUOnly: {
		nativeServices: map[string]bool{},
		overlayFiles:   []string{baseComposeFile},
	},
}

// Classify assigns each service an execution type for the given platform and
// selects the compose overlay file set. The returned name partitions cover
// the full input set with no overlap.
func Classify(p Platform, services []ServiceDefinition) (Classification, error) {
	pol, ok := platformPolicies[p]
	if !ok {
		return Classification{}, fmt.Errorf("unknown platform %q", p)
	}

	result := Classification{
		Services:     make(map[string]ServiceDefinition, len(services)),
		OverlayFiles: append([]string(nil), pol.overlayFiles...),
	}

	for _, svc := range services {
		if svc.Name == "" {
			return Classification{}, fmt.Errorf("service with empty name")
		}
		if _, dup := result.Services[svc.Name]; dup {
			return Classification{}, fmt.Errorf("duplicate service %q", svc.Name)
		}

		if pol.nativeServices[svc.Name] {
			svc.ExecutionType = ExecutionNative
			result.NativeNames = append(result.NativeNames, svc.Name)
		} else {
			svc.ExecutionType = ExecutionDocker
			if svc.ComposeService == "" {
				svc.ComposeService = svc.Name
			}
			result.DockerNames = append(result.DockerNames, svc.Name)
		}
		result.Services[svc.Name] = svc
	}

	sort.Strings(result.DockerNames)
	sort.Strings(result.NativeNames)
	return result, nil
}
