package docker

import (
	"context"

	dockertypes "github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	volumetypes "github.com/docker/docker/api/types/volume"
)

// engineAPI defines the subset of Docker client operations used by Client.
// This interface enables unit testing without a real Docker daemon by
// allowing mock implementations to be injected.
type engineAPI interface {
	// Ping checks connectivity to the Docker daemon.
	Ping(ctx context.Context) (dockertypes.Ping, error)

	// ContainerList returns containers matching the given options.
	ContainerList(ctx context.Context, options containertypes.ListOptions) ([]dockertypes.Container, error)

	// ContainerInspect returns detailed container state.
	ContainerInspect(ctx context.Context, containerID string) (dockertypes.ContainerJSON, error)

	// ContainerStatsOneShot returns a single stats sample without streaming.
	ContainerStatsOneShot(ctx context.Context, containerID string) (dockertypes.ContainerStats, error)

	// ContainerRemove removes a container.
	ContainerRemove(ctx context.Context, containerID string, options containertypes.RemoveOptions) error

	// VolumeList returns volumes matching the given options.
	VolumeList(ctx context.Context, options volumetypes.ListOptions) (volumetypes.ListResponse, error)

	// VolumeRemove removes a volume.
	VolumeRemove(ctx context.Context, volumeID string, force bool) error

	// NetworkList returns networks matching the given options.
	NetworkList(ctx context.Context, options dockertypes.NetworkListOptions) ([]dockertypes.NetworkResource, error)

	// NetworkRemove removes a network.
	NetworkRemove(ctx context.Context, networkID string) error

	// ImageList returns images matching the given options.
	ImageList(ctx context.Context, options imagetypes.ListOptions) ([]imagetypes.Summary, error)

	// ImageRemove removes an image.
	ImageRemove(ctx context.Context, imageID string, options imagetypes.RemoveOptions) ([]imagetypes.DeleteResponse, error)

	// Close releases resources associated with the client.
	Close() error
}
