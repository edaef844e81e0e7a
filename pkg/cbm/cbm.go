// Package cbm implements C5: the Combined Broker Model, a single graph
// that accumulates ADMs from many sites with per-vertex provenance, plus
// the substrate-matching queries answered against it. Merge/unmerge are
// grounded on spec.md §4.5; matching queries live in match.go.
package cbm

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/adm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// CBM owns one named graph in store and serializes every mutating
// operation against it. §5 requires callers to serialize concurrent
// merges; the mutex here makes a single CBM instance safe to share across
// goroutines that don't coordinate externally, without promising any
// particular interleaving beyond one-at-a-time.
type CBM struct {
	mu      sync.Mutex
	store   graph.Store
	graphID string
}

// New creates a CBM backed by the named graph graphID in store. New does
// not touch store; the graph comes into being when the first merged vertex
// is added to it.
func New(store graph.Store, graphID string) *CBM {
	return &CBM{store: store, graphID: graphID}
}

// GraphID returns the name of the CBM's graph in the store.
func (c *CBM) GraphID() string { return c.graphID }

// MergeADM unions one ADM into the CBM, per §4.5 merge_adm. Idempotent:
// merging the same ADM twice leaves the CBM unchanged on the second call.
func (c *CBM) MergeADM(ctx context.Context, a *adm.ADM) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodeIDs, err := c.store.ListNodes(ctx, a.GraphID)
	if err != nil {
		return modelerrors.WrapStore(err, "list_nodes")
	}

	for _, n := range nodeIDs {
		if err := c.mergeNode(ctx, a.GraphID, a.GraphID, n); err != nil {
			return err
		}
	}

	edges, err := collectEdges(ctx, c.store, a.GraphID, nodeIDs)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if err := c.store.AddEdge(ctx, c.graphID, e.A, e.Z, e.Relation, e.Props); err != nil {
			return modelerrors.WrapStore(err, "add_edge")
		}
	}
	return nil
}

// mergeNode copies or unions a single vertex from the source graph into
// the CBM.
func (c *CBM) mergeNode(ctx context.Context, srcGraph, provenanceID, nodeID string) error {
	class, props, err := c.store.NodeProps(ctx, srcGraph, nodeID)
	if err != nil {
		return modelerrors.WrapStore(err, "node_props")
	}

	existingClass, existingProps, err := c.store.NodeProps(ctx, c.graphID, nodeID)
	if modelerrors.Of(err, modelerrors.NotFound) {
		merged := props.Clone()
		merged[graph.PropADMGraphIDs], err = encodeSet(newSet(provenanceID))
		if err != nil {
			return err
		}
		if err := c.store.AddNode(ctx, c.graphID, nodeID, class, merged); err != nil {
			return modelerrors.WrapStore(err, "add_node")
		}
		return nil
	}
	if err != nil {
		return modelerrors.WrapStore(err, "node_props")
	}
	_ = existingClass // class is invariant across ADMs for the same physical node_id

	merged, err := mergeProps(nodeID, existingProps, props, provenanceID)
	if err != nil {
		return err
	}
	return modelerrors.WrapStore(c.store.UpdateNodeProps(ctx, c.graphID, nodeID, merged), "update_node_props")
}

// mergeProps unions provenance and the scalar Capacities/Labels maps,
// rejecting with ConflictingMerge when the two sides disagree on the
// value of the same key for the same physical node — the conservative
// policy chosen for the open question in spec.md §9.
func mergeProps(nodeID string, existing, incoming graph.Props, provenanceID string) (graph.Props, error) {
	existingProvenance, err := decodeSet(existing[graph.PropADMGraphIDs])
	if err != nil {
		return nil, err
	}
	existingProvenance[provenanceID] = struct{}{}

	out := existing.Clone()
	out[graph.PropADMGraphIDs], err = encodeSet(existingProvenance)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{graph.PropCapacities, graph.PropLabels} {
		merged, err := mergeScalarMap(nodeID, key, existing[key], incoming[key])
		if err != nil {
			return nil, err
		}
		if merged != "" {
			out[key] = merged
		}
	}
	return out, nil
}

// mergeScalarMap merges two JSON object-encoded property maps key by key,
// rejecting with ConflictingMerge on the first key both sides set to
// different values. Reads/writes the raw JSON object in place with
// gjson/sjson rather than round-tripping through map[string]interface{},
// so a key neither side touches keeps its original on-wire formatting.
func mergeScalarMap(nodeID, propName, existingRaw, incomingRaw string) (string, error) {
	if existingRaw == "" && incomingRaw == "" {
		return "", nil
	}
	if existingRaw == "" {
		if !gjson.Valid(incomingRaw) {
			return "", modelerrors.New(modelerrors.Malformed, "invalid %q JSON for %q", propName, nodeID)
		}
		return incomingRaw, nil
	}
	if !gjson.Valid(existingRaw) {
		return "", modelerrors.New(modelerrors.Malformed, "invalid %q JSON for %q", propName, nodeID)
	}

	merged := existingRaw
	var mergeErr error
	gjson.Parse(incomingRaw).ForEach(func(key, value gjson.Result) bool {
		prior := gjson.Get(merged, key.String())
		if prior.Exists() && prior.Raw != value.Raw {
			mergeErr = modelerrors.New(modelerrors.ConflictingMerge,
				"node %q: conflicting %q value for key %q (%s vs %s)", nodeID, propName, key.String(), prior.Raw, value.Raw)
			return false
		}
		var err error
		merged, err = sjson.SetRaw(merged, key.String(), value.Raw)
		if err != nil {
			mergeErr = modelerrors.Wrap(err, modelerrors.Malformed, "merging %q for %q", propName, nodeID)
			return false
		}
		return true
	})
	if mergeErr != nil {
		return "", mergeErr
	}
	return merged, nil
}

// UnmergeADM removes graphID from every CBM vertex's provenance, deleting
// vertices whose provenance becomes empty, per §4.5 unmerge_adm.
// Provenance is tracked per vertex only: on a vertex that survives, the
// Capacities/Labels keys merged in from graphID stay in place, and edges
// between surviving vertices are not removed, so the result can differ
// from a fresh merge of the remaining ADMs.
func (c *CBM) UnmergeADM(ctx context.Context, graphID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodeIDs, err := c.store.ListNodes(ctx, c.graphID)
	if err != nil {
		return modelerrors.WrapStore(err, "list_nodes")
	}

	for _, n := range nodeIDs {
		_, props, err := c.store.NodeProps(ctx, c.graphID, n)
		if err != nil {
			return modelerrors.WrapStore(err, "node_props")
		}
		provenance, err := decodeSet(props[graph.PropADMGraphIDs])
		if err != nil {
			return err
		}
		if _, present := provenance[graphID]; !present {
			continue
		}
		delete(provenance, graphID)

		if len(provenance) == 0 {
			if err := c.store.RemoveNode(ctx, c.graphID, n); err != nil {
				return modelerrors.WrapStore(err, "remove_node")
			}
			continue
		}

		updated := props.Clone()
		updated[graph.PropADMGraphIDs], err = encodeSet(provenance)
		if err != nil {
			return err
		}
		if err := c.store.UpdateNodeProps(ctx, c.graphID, n, updated); err != nil {
			return modelerrors.WrapStore(err, "update_node_props")
		}
	}
	return nil
}

// Provenance returns the decoded adm_graph_ids set for a CBM vertex.
func (c *CBM) Provenance(ctx context.Context, nodeID string) (map[string]struct{}, error) {
	_, props, err := c.store.NodeProps(ctx, c.graphID, nodeID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "node_props")
	}
	return decodeSet(props[graph.PropADMGraphIDs])
}

func newSet(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}
	return out
}

func decodeSet(raw string) (map[string]struct{}, error) {
	if raw == "" {
		return map[string]struct{}{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, modelerrors.Wrap(err, modelerrors.Malformed, "decoding provenance set %q", raw)
	}
	return newSet(ids...), nil
}

func encodeSet(set map[string]struct{}) (string, error) {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", modelerrors.Wrap(err, modelerrors.Malformed, "encoding provenance set")
	}
	return string(raw), nil
}

// collectEdges gathers the deduplicated set of edges incident on any of
// nodeIDs within graphID.
func collectEdges(ctx context.Context, store graph.Store, graphID string, nodeIDs []string) ([]graph.Edge, error) {
	seen := map[string]graph.Edge{}
	for _, n := range nodeIDs {
		edges, err := store.ListEdges(ctx, graphID, n)
		if err != nil {
			return nil, modelerrors.WrapStore(err, "list_edges")
		}
		for _, e := range edges {
			a, z := e.A, e.Z
			if a > z {
				a, z = z, a
			}
			seen[a+"\x00"+z+"\x00"+string(e.Relation)] = e
		}
	}
	out := make([]graph.Edge, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	return out, nil
}
