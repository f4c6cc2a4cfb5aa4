package docker

import (
	"context"

	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
)

// defaultNetworks are the implicit engine networks that must never be
// removed, even if somehow labeled.
var defaultNetworks = map[string]bool{
	"bridge": true,
	"host":   true,
	"none":   true,
}

// RemoveOutcome records the result of removing a single resource. Removal
// loops collect outcomes rather than aborting on the first failure.
type RemoveOutcome struct {
	Resource DiscoveredResource
	Skipped  bool
	Err      error
}

// Failures counts outcomes that carry an error.
func Failures(outcomes []RemoveOutcome) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			count++
		}
	}
	return count
}

// RemoveContainers removes the given containers one by one. A failure on one
// container is logged and recorded, never propagated to its siblings.
func (c *Client) RemoveContainers(ctx context.Context, containers []DiscoveredResource, force bool) []RemoveOutcome {
	outcomes := make([]RemoveOutcome, 0, len(containers))
	for _, ctr := range containers {
		err := c.removeOne(ctx, func(opCtx context.Context) error {
			return c.api.ContainerRemove(opCtx, ctr.EngineID, containertypes.RemoveOptions{Force: force})
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("container", ctr.Name).Msg("failed to remove container")
		} else {
			c.logger.Debug().Str("container", ctr.Name).Msg("removed container")
		}
		outcomes = append(outcomes, RemoveOutcome{Resource: ctr, Err: err})
	}
	return outcomes
}

// RemoveVolumes removes the given volumes one by one.
func (c *Client) RemoveVolumes(ctx context.Context, volumes []DiscoveredResource, force bool) []RemoveOutcome {
	outcomes := make([]RemoveOutcome, 0, len(volumes))
	for _, vol := range volumes {
		err := c.removeOne(ctx, func(opCtx context.Context) error {
			return c.api.VolumeRemove(opCtx, vol.EngineID, force)
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("volume", vol.Name).Msg("failed to remove volume")
		} else {
			c.logger.Debug().Str("volume", vol.Name).Msg("removed volume")
		}
		outcomes = append(outcomes, RemoveOutcome{Resource: vol, Err: err})
	}
	return outcomes
}

// RemoveNetworks removes the given networks one by one. The implicit engine
// networks are skipped outright.
func (c *Client) RemoveNetworks(ctx context.Context, networks []DiscoveredResource) []RemoveOutcome {
	outcomes := make([]RemoveOutcome, 0, len(networks))
	for _, nw := range networks {
		if defaultNetworks[nw.Name] {
			c.logger.Debug().Str("network", nw.Name).Msg("skipping engine default network")
			outcomes = append(outcomes, RemoveOutcome{Resource: nw, Skipped: true})
			continue
		}
		err := c.removeOne(ctx, func(opCtx context.Context) error {
			return c.api.NetworkRemove(opCtx, nw.EngineID)
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("network", nw.Name).Msg("failed to remove network")
		} else {
			c.logger.Debug().Str("network", nw.Name).Msg("removed network")
		}
		outcomes = append(outcomes, RemoveOutcome{Resource: nw, Err: err})
	}
	return outcomes
}

// RemoveImages removes the given images one by one.
func (c *Client) RemoveImages(ctx context.Context, images []DiscoveredResource, force bool) []RemoveOutcome {
	outcomes := make([]RemoveOutcome, 0, len(images))
	for _, img := range images {
		err := c.removeOne(ctx, func(opCtx context.Context) error {
			_, removeErr := c.api.ImageRemove(opCtx, img.EngineID, imagetypes.RemoveOptions{Force: force})
			return removeErr
		})
		if err != nil {
			c.logger.Warn().Err(err).Str("image", img.Name).Msg("failed to remove image")
		} else {
			c.logger.Debug().Str("image", img.Name).Msg("removed image")
		}
		outcomes = append(outcomes, RemoveOutcome{Resource: img, Err: err})
	}
	return outcomes
}

func (c *Client) removeOne(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	return op(opCtx)
}
