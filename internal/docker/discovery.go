package docker

import (
	"context"
	"fmt"

	dockertypes "github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	imagetypes "github.com/docker/docker/api/types/image"
	volumetypes "github.com/docker/docker/api/types/volume"
)

// ResourceKind identifies the engine resource flavor of a discovery entry.
type ResourceKind string

const (
	KindContainer ResourceKind = "container"
	KindVolume    ResourceKind = "volume"
	KindNetwork   ResourceKind = "network"
	KindImage     ResourceKind = "image"
)

// DiscoveredResource is one label-owned engine resource. Discovery results
// are never cached: engine state can change between calls.
type DiscoveredResource struct {
	Kind         ResourceKind
	EngineID     string
	Name         string
	Labels       map[string]string
	RuntimeState string
}

// OwnedResources groups everything carrying the ownership label, independent
// of running state.
type OwnedResources struct {
	Containers []DiscoveredResource
	Volumes    []DiscoveredResource
	Networks   []DiscoveredResource
	Images     []DiscoveredResource
}

// Total returns the number of owned resources across all kinds.
func (r OwnedResources) Total() int {
	return len(r.Containers) + len(r.Volumes) + len(r.Networks) + len(r.Images)
}

func ownershipArgs() filters.Args {
	return filters.NewArgs(filters.Arg("label", OwnershipFilter))
}

// FindOwned queries the engine for all containers, volumes, networks, and
// images carrying the ownership label.
func (c *Client) FindOwned(ctx context.Context) (OwnedResources, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var owned OwnedResources

	containers, err := c.api.ContainerList(ctx, containertypes.ListOptions{
		All:     true,
		Filters: ownershipArgs(),
	})
	if err != nil {
		return OwnedResources{}, fmt.Errorf("list containers: %w", err)
	}
	for _, ctr := range containers {
		name := ctr.ID
		if len(ctr.Names) > 0 {
			name = trimContainerName(ctr.Names[0])
		}
		owned.Containers = append(owned.Containers, DiscoveredResource{
			Kind:         KindContainer,
			EngineID:     ctr.ID,
			Name:         name,
			Labels:       ctr.Labels,
			RuntimeState: ctr.State,
		})
	}

	volumes, err := c.api.VolumeList(ctx, volumetypes.ListOptions{Filters: ownershipArgs()})
	if err != nil {
		return OwnedResources{}, fmt.Errorf("list volumes: %w", err)
	}
	for _, vol := range volumes.Volumes {
		if vol == nil {
			continue
		}
		owned.Volumes = append(owned.Volumes, DiscoveredResource{
			Kind:     KindVolume,
			EngineID: vol.Name,
			Name:     vol.Name,
			Labels:   vol.Labels,
		})
	}

	networks, err := c.api.NetworkList(ctx, dockertypes.NetworkListOptions{Filters: ownershipArgs()})
	if err != nil {
		return OwnedResources{}, fmt.Errorf("list networks: %w", err)
	}
	for _, nw := range networks {
		owned.Networks = append(owned.Networks, DiscoveredResource{
			Kind:     KindNetwork,
			EngineID: nw.ID,
			Name:     nw.Name,
			Labels:   nw.Labels,
		})
	}

	images, err := c.api.ImageList(ctx, imagetypes.ListOptions{Filters: ownershipArgs()})
	if err != nil {
		return OwnedResources{}, fmt.Errorf("list images: %w", err)
	}
	for _, img := range images {
		name := img.ID
		if len(img.RepoTags) > 0 {
			name = img.RepoTags[0]
		}
		owned.Images = append(owned.Images, DiscoveredResource{
			Kind:     KindImage,
			EngineID: img.ID,
			Name:     name,
			Labels:   img.Labels,
		})
	}

	return owned, nil
}

// CountOwned returns the total number of owned resources. Used to
// short-circuit uninstall when nothing exists.
func (c *Client) CountOwned(ctx context.Context) (int, error) {
	owned, err := c.FindOwned(ctx)
	if err != nil {
		return 0, err
	}
	return owned.Total(), nil
}

// IsStackRunning reports whether at least one owned container is in a
// running lifecycle state.
func (c *Client) IsStackRunning(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	containers, err := c.api.ContainerList(ctx, containertypes.ListOptions{
		All:     true,
		Filters: ownershipArgs(),
	})
	if err != nil {
		return false, fmt.Errorf("list containers: %w", err)
	}
	for _, ctr := range containers {
		if isRunningState(ctr.State) {
			return true, nil
		}
	}
	return false, nil
}

func isRunningState(state string) bool {
	switch state {
	case "running", "restarting":
		return true
	}
	return false
}

// trimContainerName strips the leading slash the engine prefixes to
// container names.
func trimContainerName(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
