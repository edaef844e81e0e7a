package cbm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/memgraph"
)

// buildS5 constructs the CBM scenario S5 of spec.md §8: one NetworkNode
// at Site=RENC with one SmartNIC ConnectX-5 and one SharedNIC ConnectX-6.
func buildS5(t *testing.T) (*CBM, string) {
	t.Helper()
	ctx := context.Background()
	store := memgraph.New()
	b := New(store, "cbm")

	require.NoError(t, store.AddNode(ctx, "cbm", "host1", graph.ClassNetworkNode, graph.Props{graph.PropSite: "RENC"}))
	require.NoError(t, store.AddNode(ctx, "cbm", "nic-smart", graph.ClassComponent, graph.Props{
		graph.PropResourceType:  "SmartNIC",
		graph.PropResourceModel: "ConnectX-5",
	}))
	require.NoError(t, store.AddNode(ctx, "cbm", "nic-shared", graph.ClassComponent, graph.Props{
		graph.PropResourceType:  ResourceTypeSharedNIC,
		graph.PropResourceModel: "ConnectX-6",
	}))
	require.NoError(t, store.AddEdge(ctx, "cbm", "host1", "nic-smart", graph.RelationHas, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, "cbm", "host1", "nic-shared", graph.RelationHas, graph.Props{}))

	return b, "host1"
}

func TestNodesMatching_S5(t *testing.T) {
	tests := []struct {
		name     string
		required []ComponentRequest
		want     bool
	}{
		{
			name: "one of each matches",
			required: []ComponentRequest{
				{Type: "SmartNIC", Model: "ConnectX-5"},
				{Type: ResourceTypeSharedNIC, Model: "ConnectX-6"},
			},
			want: true,
		},
		{
			name: "two exclusive SmartNICs do not match",
			required: []ComponentRequest{
				{Type: "SmartNIC", Model: "ConnectX-5"},
				{Type: "SmartNIC", Model: "ConnectX-5"},
			},
			want: false,
		},
		{
			name: "two SharedNICs match via SR-IOV",
			required: []ComponentRequest{
				{Type: ResourceTypeSharedNIC, Model: "ConnectX-6"},
				{Type: ResourceTypeSharedNIC, Model: "ConnectX-6"},
			},
			want: true,
		},
		{
			name: "empty model is a wildcard over the type",
			required: []ComponentRequest{
				{Type: "SmartNIC"},
			},
			want: true,
		},
		{
			name: "wildcard model still enforces exclusive count",
			required: []ComponentRequest{
				{Type: "SmartNIC"},
				{Type: "SmartNIC"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, host := buildS5(t)
			matches, err := b.NodesMatching(context.Background(), graph.ClassNetworkNode,
				map[string]string{graph.PropSite: "RENC"}, tt.required)
			require.NoError(t, err)
			if tt.want {
				assert.Equal(t, []string{host}, matches)
			} else {
				assert.Empty(t, matches)
			}
		})
	}
}

// TestPathWithHops_S6 implements scenario S6: a linear CBM
// lbnl—net_sw—renc—net_sw2—uky.
func TestPathWithHops_S6(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const g = "cbm"

	for _, n := range []string{"lbnl", "net_sw", "renc", "net_sw2", "uky"} {
		require.NoError(t, store.AddNode(ctx, g, n, graph.ClassNetworkNode, graph.Props{}))
	}
	require.NoError(t, store.AddEdge(ctx, g, "lbnl", "net_sw", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "net_sw", "renc", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "renc", "net_sw2", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "net_sw2", "uky", graph.RelationConnects, graph.Props{}))

	b := New(store, g)

	path, err := b.PathWithHops(ctx, "lbnl", "uky", []string{"renc"}, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"lbnl", "net_sw", "renc", "net_sw2", "uky"}, path)

	path, err = b.PathWithHops(ctx, "lbnl", "uky", []string{"absent_node"}, -1)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestIntersiteLinks(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const g = "cbm"

	require.NoError(t, store.AddNode(ctx, g, "switchA", graph.ClassSwitchFabric, graph.Props{graph.PropSite: "RENC"}))
	require.NoError(t, store.AddNode(ctx, g, "switchB", graph.ClassSwitchFabric, graph.Props{graph.PropSite: "LBNL"}))
	require.NoError(t, store.AddNode(ctx, g, "link1", graph.ClassLink, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "link1", "switchA", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "link1", "switchB", graph.RelationConnects, graph.Props{}))

	// A same-site link must not be reported.
	require.NoError(t, store.AddNode(ctx, g, "switchC", graph.ClassSwitchFabric, graph.Props{graph.PropSite: "RENC"}))
	require.NoError(t, store.AddNode(ctx, g, "link2", graph.ClassLink, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "link2", "switchA", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, g, "link2", "switchC", graph.RelationConnects, graph.Props{}))

	b := New(store, g)
	links, err := b.IntersiteLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "link1", links[0].Link)
}
