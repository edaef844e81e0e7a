package memgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

func TestShortestPath_LexicographicTieBreak(t *testing.T) {
	ctx := context.Background()
	s := New()
	const g = "g"

	for _, n := range []string{"A", "B", "C", "D"} {
		require.NoError(t, s.AddNode(ctx, g, n, graph.ClassNetworkNode, graph.Props{}))
	}
	// Two equal-length paths from A to D: A-B-D and A-C-D.
	require.NoError(t, s.AddEdge(ctx, g, "A", "B", graph.RelationConnects, graph.Props{}))
	require.NoError(t, s.AddEdge(ctx, g, "B", "D", graph.RelationConnects, graph.Props{}))
	require.NoError(t, s.AddEdge(ctx, g, "A", "C", graph.RelationConnects, graph.Props{}))
	require.NoError(t, s.AddEdge(ctx, g, "C", "D", graph.RelationConnects, graph.Props{}))

	path, err := s.ShortestPath(ctx, g, "A", "D")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, path)
}

func TestShortestPath_NoPath(t *testing.T) {
	ctx := context.Background()
	s := New()
	const g = "g"

	require.NoError(t, s.AddNode(ctx, g, "A", graph.ClassNetworkNode, graph.Props{}))
	require.NoError(t, s.AddNode(ctx, g, "B", graph.ClassNetworkNode, graph.Props{}))

	path, err := s.ShortestPath(ctx, g, "A", "B")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestCloneGraph(t *testing.T) {
	ctx := context.Background()
	s := New()
	const src, dst = "src", "dst"

	require.NoError(t, s.AddNode(ctx, src, "A", graph.ClassNetworkNode, graph.Props{"Site": "RENC"}))
	require.NoError(t, s.AddNode(ctx, src, "B", graph.ClassComponent, graph.Props{}))
	require.NoError(t, s.AddEdge(ctx, src, "A", "B", graph.RelationHas, graph.Props{}))

	require.NoError(t, s.CloneGraph(ctx, src, dst))
	require.NoError(t, s.RemoveNode(ctx, src, "B"))

	dstNodes, err := s.ListNodes(ctx, dst)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, dstNodes)

	edges, err := s.ListEdges(ctx, dst, "A")
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestRemoveNode_DropsIncidentEdges(t *testing.T) {
	ctx := context.Background()
	s := New()
	const g = "g"

	require.NoError(t, s.AddNode(ctx, g, "A", graph.ClassNetworkNode, graph.Props{}))
	require.NoError(t, s.AddNode(ctx, g, "B", graph.ClassComponent, graph.Props{}))
	require.NoError(t, s.AddEdge(ctx, g, "A", "B", graph.RelationHas, graph.Props{}))

	require.NoError(t, s.RemoveNode(ctx, g, "B"))

	edges, err := s.ListEdges(ctx, g, "A")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestNodeProps_NotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.AddNode(ctx, "g", "A", graph.ClassNetworkNode, graph.Props{}))

	_, _, err := s.NodeProps(ctx, "g", "missing")
	require.Error(t, err)
	assert.True(t, modelerrors.Of(err, modelerrors.NotFound))
}
