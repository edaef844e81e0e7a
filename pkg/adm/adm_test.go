package adm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/catalog"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/memgraph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// TestGenerate_S2 implements scenario S2 of spec.md §8: building on S1's
// ARM, an extra unannotated node X sits on the only path between A and B.
// The ADM for d1 must contain {A, X, B}; the ADM for d2 must contain {C}.
func TestGenerate_S2(t *testing.T) {
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
	require.NoError(t, store.AddNode(ctx, armID, "X", graph.ClassNetworkNode, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, armID, "A", "X", graph.RelationConnects, graph.Props{}))
	require.NoError(t, store.AddEdge(ctx, armID, "X", "B", graph.RelationConnects, graph.Props{}))

	cat, err := catalog.Walk(ctx, store, armID, false)
	require.NoError(t, err)

	adms, err := Generate(ctx, store, armID, cat)
	require.NoError(t, err)

	require.Contains(t, adms, "d1")
	assert.Equal(t, map[string]struct{}{"A": {}, "X": {}, "B": {}}, adms["d1"].KeepSet)

	require.Contains(t, adms, "d2")
	assert.Equal(t, map[string]struct{}{"C": {}}, adms["d2"].KeepSet)
}

func TestGenerate_NoDelegations(t *testing.T) {
	ctx := context.Background()
	store := memgraph.New()
	const armID = "arm"
	require.NoError(t, store.AddNode(ctx, armID, "A", graph.ClassNetworkNode, graph.Props{}))

	cat, err := catalog.Walk(ctx, store, armID, false)
	require.NoError(t, err)

	_, err = Generate(ctx, store, armID, cat)
	require.Error(t, err)
	assert.True(t, modelerrors.Of(err, modelerrors.NoDelegations))
}
