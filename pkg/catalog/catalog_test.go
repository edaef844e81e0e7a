package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/delegation"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/memgraph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// TestWalk_S1 implements scenario S1 of spec.md §8: A defines pool p1
// under d1, B mentions p1, C carries a singleton capacity delegation
// under d2.
func TestWalk_S1(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"

	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: `[{"label_pool":"p1","delegation":"d1","vlan_range":"100-200"}]`,
	}))
	require.NoError(t, store.AddNode(ctx, armID, "B", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: `[{"pool":"p1"}]`,
	}))
	require.NoError(t, store.AddNode(ctx, armID, "C", graph.ClassNetworkNode, graph.Props{
		graph.PropCapacityDelegations: `[{"delegation":"d2","bw":10}]`,
	}))
	require.NoError(t, store.AddEdge(ctx, armID, "A", "B", graph.RelationConnects, graph.Props{}))

	cat, err := Walk(ctx, store, armID, false)
	require.NoError(t, err)

	pools := cat.Label.Pools("d1")
	require.Len(t, pools, 1)
	assert.Equal(t, "A", pools[0].DefinedOn)
	assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, pools[0].DefinedFor)

	singletons := cat.Capacity.Singletons("d2")
	require.Len(t, singletons, 1)
	assert.Equal(t, "C", singletons[0].DefinedOn)
}

// TestWalk_S3 implements scenario S3: an annotation with no "delegation"
// field maps to the default delegation id.
func TestWalk_S3(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"

	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{
		graph.PropCapacityDelegations: `{"core":4}`,
	}))

	cat, err := Walk(ctx, store, armID, false)
	require.NoError(t, err)

	singletons := cat.Capacity.Singletons(delegation.DefaultDelegationID)
	require.Len(t, singletons, 1)
	assert.Equal(t, "A", singletons[0].DefinedOn)
}

func TestWalk_DuplicatePoolDefinition(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"

	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: `[{"label_pool":"p1","delegation":"d1","vlan_range":"100-200"}]`,
	}))
	require.NoError(t, store.AddNode(ctx, armID, "B", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: `[{"label_pool":"p1","delegation":"d1","vlan_range":"300-400"}]`,
	}))

	_, err := Walk(ctx, store, armID, false)
	require.Error(t, err)
	assert.True(t, modelerrors.Of(err, modelerrors.DuplicatePoolDefinition))
}

func TestWalk_NoneSentinelIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"

	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: graph.NoneSentinel,
	}))

	cat, err := Walk(ctx, store, armID, false)
	require.NoError(t, err)
	assert.Empty(t, cat.Label.DelegationIDs())
}

func TestWalk_MalformedDelegation(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"

	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{
		graph.PropLabelDelegations: `"not an object or a list"`,
	}))

	_, err := Walk(ctx, store, armID, false)
	require.Error(t, err)
	assert.True(t, modelerrors.Of(err, modelerrors.MalformedDelegation))
}

func TestWalk_EmptyARM(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "empty"

	// A graph that exists but has had its only vertex removed still
	// counts as an empty ARM, distinct from a graph id the store has
	// never heard of (which surfaces as StoreError/NotFound instead).
	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{}))
	require.NoError(t, store.RemoveNode(ctx, armID, "A"))

	_, err := Walk(ctx, store, armID, false)
	require.Error(t, err)
	assert.True(t, modelerrors.Of(err, modelerrors.EmptyARM))
}
