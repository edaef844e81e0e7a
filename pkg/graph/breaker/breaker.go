// Package breaker decorates a graph.Store with a circuit breaker, so a
// failing external adapter (the common case this module is built against:
// a remote graph database, not memgraph) stops being hammered with calls
// that are already failing. Grounded on the pattern of wrapping an
// external dependency behind a resilience decorator rather than baking
// retry/backoff into the domain logic itself.
package breaker

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
)

// Store wraps a graph.Store so every call goes through a shared
// sony/gobreaker.CircuitBreaker; once the breaker's trip condition is met,
// further calls fail fast instead of waiting on a store that is already
// down.
type Store struct {
	inner graph.Store
	cb    *gobreaker.CircuitBreaker
}

// New wraps inner with a circuit breaker named name, using gobreaker's
// defaults (open once more than 5 consecutive calls have failed) unless
// settings is non-nil.
func New(name string, inner graph.Store, settings *gobreaker.Settings) *Store {
	s := gobreaker.Settings{Name: name}
	if settings != nil {
		s = *settings
	}
	return &Store{inner: inner, cb: gobreaker.NewCircuitBreaker(s)}
}

func run[T any](s *Store, fn func() (T, error)) (T, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (s *Store) ListNodes(ctx context.Context, graphID string) ([]string, error) {
	return run(s, func() ([]string, error) { return s.inner.ListNodes(ctx, graphID) })
}

func (s *Store) NodeProps(ctx context.Context, graphID, nodeID string) (graph.Class, graph.Props, error) {
	type pair struct {
		class graph.Class
		props graph.Props
	}
	p, err := run(s, func() (pair, error) {
		c, pr, err := s.inner.NodeProps(ctx, graphID, nodeID)
		return pair{class: c, props: pr}, err
	})
	return p.class, p.props, err
}

func (s *Store) AddNode(ctx context.Context, graphID, nodeID string, class graph.Class, props graph.Props) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.AddNode(ctx, graphID, nodeID, class, props) })
	return err
}

func (s *Store) UpdateNodeProps(ctx context.Context, graphID, nodeID string, props graph.Props) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.UpdateNodeProps(ctx, graphID, nodeID, props) })
	return err
}

func (s *Store) RemoveNode(ctx context.Context, graphID, nodeID string) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.RemoveNode(ctx, graphID, nodeID) })
	return err
}

func (s *Store) ListEdges(ctx context.Context, graphID, nodeID string) ([]graph.Edge, error) {
	return run(s, func() ([]graph.Edge, error) { return s.inner.ListEdges(ctx, graphID, nodeID) })
}

func (s *Store) AddEdge(ctx context.Context, graphID, a, z string, relation graph.Relation, props graph.Props) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.AddEdge(ctx, graphID, a, z, relation, props) })
	return err
}

func (s *Store) ShortestPath(ctx context.Context, graphID, a, z string) ([]string, error) {
	return run(s, func() ([]string, error) { return s.inner.ShortestPath(ctx, graphID, a, z) })
}

func (s *Store) CloneGraph(ctx context.Context, srcID, dstID string) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.CloneGraph(ctx, srcID, dstID) })
	return err
}

func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	_, err := run(s, func() (struct{}, error) { return struct{}{}, s.inner.DeleteGraph(ctx, graphID) })
	return err
}

var _ graph.Store = (*Store)(nil)
