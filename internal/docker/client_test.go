package docker

import (
	"context"
	"errors"
	"testing"

	dockertypes "github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	volumetypes "github.com/docker/docker/api/types/volume"
	"github.com/rs/zerolog"
)

// fakeEngine implements engineAPI with overridable behavior per method.
type fakeEngine struct {
	pingErr        error
	containers     []dockertypes.Container
	containersErr  error
	inspect        dockertypes.ContainerJSON
	inspectErr     error
	stats          dockertypes.ContainerStats
	statsErr       error
	volumes        volumetypes.ListResponse
	volumesErr     error
	networks       []dockertypes.NetworkResource
	networksErr    error
	images         []imagetypes.Summary
	imagesErr      error
	removeErrs     map[string]error
	removedIDs     []string
	closed         bool
}

func (f *fakeEngine) Ping(context.Context) (dockertypes.Ping, error) {
	return dockertypes.Ping{}, f.pingErr
}

func (f *fakeEngine) ContainerList(context.Context, containertypes.ListOptions) ([]dockertypes.Container, error) {
	return f.containers, f.containersErr
}

func (f *fakeEngine) ContainerInspect(context.Context, string) (dockertypes.ContainerJSON, error) {
	return f.inspect, f.inspectErr
}

func (f *fakeEngine) ContainerStatsOneShot(context.Context, string) (dockertypes.ContainerStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeEngine) ContainerRemove(_ context.Context, id string, _ containertypes.RemoveOptions) error {
	f.removedIDs = append(f.removedIDs, id)
	return f.removeErrs[id]
}

func (f *fakeEngine) VolumeList(context.Context, volumetypes.ListOptions) (volumetypes.ListResponse, error) {
	return f.volumes, f.volumesErr
}

func (f *fakeEngine) VolumeRemove(_ context.Context, id string, _ bool) error {
	f.removedIDs = append(f.removedIDs, id)
	return f.removeErrs[id]
}

func (f *fakeEngine) NetworkList(context.Context, dockertypes.NetworkListOptions) ([]dockertypes.NetworkResource, error) {
	return f.networks, f.networksErr
}

func (f *fakeEngine) NetworkRemove(_ context.Context, id string) error {
	f.removedIDs = append(f.removedIDs, id)
	return f.removeErrs[id]
}

func (f *fakeEngine) ImageList(context.Context, imagetypes.ListOptions) ([]imagetypes.Summary, error) {
	return f.images, f.imagesErr
}

func (f *fakeEngine) ImageRemove(_ context.Context, id string, _ imagetypes.RemoveOptions) ([]imagetypes.DeleteResponse, error) {
	f.removedIDs = append(f.removedIDs, id)
	return nil, f.removeErrs[id]
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func newTestClient(t *testing.T, engine engineAPI, runner cliRunner) *Client {
	t.Helper()
	opts := []Option{WithEngineAPI(engine)}
	if runner != nil {
		opts = append(opts, WithCLIRunner(runner))
	}
	c, err := NewClient(zerolog.Nop(), "", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestFindOwned(t *testing.T) {
	engine := &fakeEngine{
		containers: []dockertypes.Container{
			{ID: "c1", Names: []string{"/ollama-stack-webui-1"}, State: "running", Labels: map[string]string{LabelKey: LabelValue}},
		},
		volumes: volumetypes.ListResponse{Volumes: []*volumetypes.Volume{
			{Name: "webui_data", Labels: map[string]string{LabelKey: LabelValue}},
			nil,
		}},
		networks: []dockertypes.NetworkResource{
			{ID: "n1", Name: "ollama-stack-network"},
		},
		images: []imagetypes.Summary{
			{ID: "sha256:abc", RepoTags: []string{"ghcr.io/open-webui/open-webui:main"}},
		},
	}
	c := newTestClient(t, engine, nil)

	owned, err := c.FindOwned(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owned.Total() != 4 {
		t.Fatalf("expected 4 owned resources, got %d", owned.Total())
	}
	if owned.Containers[0].Name != "ollama-stack-webui-1" {
		t.Fatalf("expected leading slash trimmed, got %s", owned.Containers[0].Name)
	}
	if owned.Containers[0].RuntimeState != "running" {
		t.Fatalf("expected runtime state carried, got %s", owned.Containers[0].RuntimeState)
	}
	if owned.Images[0].Name != "ghcr.io/open-webui/open-webui:main" {
		t.Fatalf("expected repo tag as image name, got %s", owned.Images[0].Name)
	}
}

func TestFindOwnedListError(t *testing.T) {
	engine := &fakeEngine{containersErr: errors.New("daemon gone")}
	c := newTestClient(t, engine, nil)

	if _, err := c.FindOwned(context.Background()); err == nil {
		t.Fatal("expected error when a list call fails")
	}
}

func TestIsStackRunning(t *testing.T) {
	tests := []struct {
		name       string
		containers []dockertypes.Container
		want       bool
	}{
		{
			name: "running container",
			containers: []dockertypes.Container{
				{ID: "c1", State: "running"},
			},
			want: true,
		},
		{
			name: "restarting counts as running",
			containers: []dockertypes.Container{
				{ID: "c1", State: "restarting"},
			},
			want: true,
		},
		{
			name: "exited only",
			containers: []dockertypes.Container{
				{ID: "c1", State: "exited"},
			},
			want: false,
		},
		{
			name: "no containers",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeEngine{containers: tt.containers}, nil)
			got, err := c.IsStackRunning(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRemoveContainersCollectsFailures(t *testing.T) {
	engine := &fakeEngine{
		removeErrs: map[string]error{"c2": errors.New("in use")},
	}
	c := newTestClient(t, engine, nil)

	containers := []DiscoveredResource{
		{Kind: KindContainer, EngineID: "c1", Name: "a"},
		{Kind: KindContainer, EngineID: "c2", Name: "b"},
		{Kind: KindContainer, EngineID: "c3", Name: "c"},
	}
	outcomes := c.RemoveContainers(context.Background(), containers, true)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if Failures(outcomes) != 1 {
		t.Fatalf("expected 1 failure, got %d", Failures(outcomes))
	}
	// The failure on c2 must not stop c3 from being attempted.
	if len(engine.removedIDs) != 3 {
		t.Fatalf("expected all removals attempted, got %v", engine.removedIDs)
	}
}

func TestRemoveNetworksSkipsDefaults(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestClient(t, engine, nil)

	networks := []DiscoveredResource{
		{Kind: KindNetwork, EngineID: "n1", Name: "bridge"},
		{Kind: KindNetwork, EngineID: "n2", Name: "ollama-stack-network"},
	}
	outcomes := c.RemoveNetworks(context.Background(), networks)

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Skipped {
		t.Fatal("expected bridge network to be skipped")
	}
	if len(engine.removedIDs) != 1 || engine.removedIDs[0] != "n2" {
		t.Fatalf("expected only n2 removed, got %v", engine.removedIDs)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, &fakeEngine{}, nil)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = newTestClient(t, &fakeEngine{pingErr: errors.New("unreachable")}, nil)
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
