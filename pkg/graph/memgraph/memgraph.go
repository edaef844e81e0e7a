// Package memgraph is a reference, in-process implementation of the
// pkg/graph.Store contract, modeled on the map-backed node/edge storage
// and RWMutex discipline used by the teacher's domain graph aggregate: a
// plain map of nodes and edges guarded by a single lock per named graph,
// with shortest paths computed by BFS and ties broken lexicographically on
// node id for determinism.
package memgraph

import (
	"context"
	"sort"
	"sync"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

type nodeRecord struct {
	class graph.Class
	props graph.Props
}

type edgeRecord struct {
	a, z     string
	relation graph.Relation
	props    graph.Props
}

func edgeKey(a, z string, rel graph.Relation) (string, string, graph.Relation) {
	if a > z {
		a, z = z, a
	}
	return a, z, rel
}

type namedGraph struct {
	mu    sync.RWMutex
	nodes map[string]*nodeRecord
	// adjacency maps a node id to the keys of edges incident on it.
	adjacency map[string]map[string]struct{}
	edges     map[string]*edgeRecord // keyed by a stable edgeID
}

func newNamedGraph() *namedGraph {
	return &namedGraph{
		nodes:     map[string]*nodeRecord{},
		adjacency: map[string]map[string]struct{}{},
		edges:     map[string]*edgeRecord{},
	}
}

// Store is an in-memory graph.Store. The zero value is not usable; use
// New. Safe for concurrent use: each named graph has its own lock, and the
// top-level registry lock only guards graph creation/deletion.
type Store struct {
	mu     sync.RWMutex
	graphs map[string]*namedGraph
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{graphs: map[string]*namedGraph{}}
}

func (s *Store) graphFor(graphID string, create bool) (*namedGraph, error) {
	s.mu.RLock()
	g, ok := s.graphs[graphID]
	s.mu.RUnlock()
	if ok {
		return g, nil
	}
	if !create {
		return nil, modelerrors.New(modelerrors.NotFound, "graph %q not found", graphID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.graphs[graphID]; ok {
		return g, nil
	}
	g = newNamedGraph()
	s.graphs[graphID] = g
	return g, nil
}

func edgeID(a, z string, rel graph.Relation) string {
	ka, kz, krel := edgeKey(a, z, rel)
	return ka + "\x00" + kz + "\x00" + string(krel)
}

func (s *Store) ListNodes(_ context.Context, graphID string) ([]string, error) {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) NodeProps(_ context.Context, graphID, nodeID string) (graph.Class, graph.Props, error) {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return "", nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[nodeID]
	if !ok {
		return "", nil, modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", nodeID, graphID)
	}
	return n.class, n.props.Clone(), nil
}

func (s *Store) AddNode(_ context.Context, graphID, nodeID string, class graph.Class, props graph.Props) error {
	g, err := s.graphFor(graphID, true)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[nodeID]; exists {
		return modelerrors.New(modelerrors.StoreError, "node %q already exists in graph %q", nodeID, graphID)
	}
	g.nodes[nodeID] = &nodeRecord{class: class, props: props.Clone()}
	g.adjacency[nodeID] = map[string]struct{}{}
	return nil
}

func (s *Store) UpdateNodeProps(_ context.Context, graphID, nodeID string, props graph.Props) error {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[nodeID]
	if !ok {
		return modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", nodeID, graphID)
	}
	n.props = props.Clone()
	return nil
}

func (s *Store) RemoveNode(_ context.Context, graphID, nodeID string) error {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[nodeID]; !ok {
		return modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", nodeID, graphID)
	}
	for key := range g.adjacency[nodeID] {
		e := g.edges[key]
		delete(g.edges, key)
		delete(g.adjacency[e.a], key)
		delete(g.adjacency[e.z], key)
	}
	delete(g.adjacency, nodeID)
	delete(g.nodes, nodeID)
	return nil
}

func (s *Store) ListEdges(_ context.Context, graphID, nodeID string) ([]graph.Edge, error) {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := g.adjacency[nodeID]
	out := make([]graph.Edge, 0, len(keys))
	for key := range keys {
		e := g.edges[key]
		out = append(out, graph.Edge{A: e.a, Z: e.z, Relation: e.relation, Props: e.props.Clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].Relation < out[j].Relation
	})
	return out, nil
}

func (s *Store) AddEdge(_ context.Context, graphID, a, z string, relation graph.Relation, props graph.Props) error {
	g, err := s.graphFor(graphID, true)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[a]; !ok {
		return modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", a, graphID)
	}
	if _, ok := g.nodes[z]; !ok {
		return modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", z, graphID)
	}

	key := edgeID(a, z, relation)
	if _, exists := g.edges[key]; exists {
		return nil // identical duplicate edges collapse silently
	}
	g.edges[key] = &edgeRecord{a: a, z: z, relation: relation, props: props.Clone()}
	g.adjacency[a][key] = struct{}{}
	g.adjacency[z][key] = struct{}{}
	return nil
}

// ShortestPath runs BFS over the undirected adjacency built from all
// relation kinds, visiting neighbors in lexicographic node-id order so
// that among equal-length paths the lexicographically smallest sequence of
// node ids wins, deterministically.
func (s *Store) ShortestPath(_ context.Context, graphID, a, z string) ([]string, error) {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[a]; !ok {
		return nil, modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", a, graphID)
	}
	if _, ok := g.nodes[z]; !ok {
		return nil, modelerrors.New(modelerrors.NotFound, "node %q not found in graph %q", z, graphID)
	}
	if a == z {
		return []string{a}, nil
	}

	return bfsPath(g, a, z, -1)
}

// bfsPath finds a shortest path within maxHops edges (unlimited if < 0).
func bfsPath(g *namedGraph, a, z string, maxHops int) ([]string, error) {
	visited := map[string]bool{a: true}
	parent := map[string]string{}
	depth := map[string]int{a: 0}
	queue := []string{a}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if maxHops >= 0 && depth[cur] >= maxHops {
			continue
		}

		neighbors := neighborsOf(g, cur)
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			depth[next] = depth[cur] + 1
			if next == z {
				return reconstruct(parent, a, z), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func neighborsOf(g *namedGraph, node string) []string {
	seen := map[string]struct{}{}
	for key := range g.adjacency[node] {
		e := g.edges[key]
		other := e.a
		if other == node {
			other = e.z
		}
		seen[other] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

func reconstruct(parent map[string]string, a, z string) []string {
	path := []string{z}
	for cur := z; cur != a; {
		cur = parent[cur]
		path = append(path, cur)
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (s *Store) CloneGraph(_ context.Context, srcID, dstID string) error {
	src, err := s.graphFor(srcID, false)
	if err != nil {
		return err
	}
	src.mu.RLock()
	defer src.mu.RUnlock()

	s.mu.Lock()
	if _, exists := s.graphs[dstID]; exists {
		s.mu.Unlock()
		return modelerrors.New(modelerrors.StoreError, "graph %q already exists", dstID)
	}
	dst := newNamedGraph()
	s.graphs[dstID] = dst
	s.mu.Unlock()

	for id, n := range src.nodes {
		dst.nodes[id] = &nodeRecord{class: n.class, props: n.props.Clone()}
		dst.adjacency[id] = map[string]struct{}{}
	}
	for key, e := range src.edges {
		dst.edges[key] = &edgeRecord{a: e.a, z: e.z, relation: e.relation, props: e.props.Clone()}
		dst.adjacency[e.a][key] = struct{}{}
		dst.adjacency[e.z][key] = struct{}{}
	}
	return nil
}

func (s *Store) DeleteGraph(_ context.Context, graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[graphID]; !ok {
		return modelerrors.New(modelerrors.NotFound, "graph %q not found", graphID)
	}
	delete(s.graphs, graphID)
	return nil
}

// ShortestPathWithCutoff is an extension beyond the C6 contract: a bounded
// BFS that fails (returns nil, nil) rather than finding an arbitrarily long
// path. pkg/cbm does not call it; PathWithHops uses ShortestPath and checks
// its cutoff on the assembled path.
func (s *Store) ShortestPathWithCutoff(_ context.Context, graphID, a, z string, cutoff int) ([]string, error) {
	g, err := s.graphFor(graphID, false)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	if a == z {
		return []string{a}, nil
	}
	return bfsPath(g, a, z, cutoff)
}
