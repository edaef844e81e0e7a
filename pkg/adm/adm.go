// Package adm implements C4: derivation of one Aggregate Delegation Model
// per distinct delegation id found in an ARM catalog. Grounded on
// Neo4jARMGraph.generate_adms's clone-then-prune strategy: clone the whole
// ARM, close the keep-set under all-pairs shortest path, then delete
// everything outside it, rather than constructively assembling the
// subgraph edge by edge.
package adm

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/catalog"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// ADM is one derived Aggregate Delegation Model, per the §3 descriptor:
// the delegation id it was derived for, a freshly minted graph id, and the
// keep-set that was preserved. GraphID is also the name of the graph
// holding the ADM's content in the store; there is no separate handle.
type ADM struct {
	DelegationID string
	GraphID      string
	KeepSet      map[string]struct{}
}

// Generate derives one ADM per delegation id known to cat, per §4.4.
// arm is the graphID of the source ARM in store. Fails with EmptyARM if
// the ARM has no vertices, NoDelegations if cat knows no delegation ids.
func Generate(ctx context.Context, store graph.Store, arm string, cat *catalog.Catalog) (map[string]*ADM, error) {
	nodeIDs, err := store.ListNodes(ctx, arm)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_nodes")
	}
	if len(nodeIDs) == 0 {
		return nil, modelerrors.New(modelerrors.EmptyARM, "ARM graph %q has no vertices", arm)
	}

	delegationIDs := cat.DelegationIDs()
	if len(delegationIDs) == 0 {
		return nil, modelerrors.New(modelerrors.NoDelegations, "ARM graph %q defines no delegations", arm)
	}

	out := make(map[string]*ADM, len(delegationIDs))
	for _, delegationID := range delegationIDs {
		a, err := generateOne(ctx, store, arm, delegationID, cat)
		if err != nil {
			return nil, err
		}
		out[delegationID] = a
	}
	return out, nil
}

func generateOne(ctx context.Context, store graph.Store, arm, delegationID string, cat *catalog.Catalog) (*ADM, error) {
	keep := cat.NodeIDsFor(delegationID)

	if err := closeUnderShortestPaths(ctx, store, arm, keep); err != nil {
		return nil, err
	}

	graphID := uuid.NewString()
	if err := store.CloneGraph(ctx, arm, graphID); err != nil {
		return nil, modelerrors.WrapStore(err, "clone_graph")
	}

	allNodes, err := store.ListNodes(ctx, graphID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_nodes")
	}
	for _, n := range allNodes {
		if _, ok := keep[n]; ok {
			continue
		}
		if err := store.RemoveNode(ctx, graphID, n); err != nil {
			return nil, modelerrors.WrapStore(err, "remove_node")
		}
	}

	if err := tagProvenance(ctx, store, graphID, keep, graphID); err != nil {
		return nil, err
	}

	return &ADM{DelegationID: delegationID, GraphID: graphID, KeepSet: keep}, nil
}

// closeUnderShortestPaths adds, for every unordered pair in keep, all
// vertices on a shortest path between them in the ARM, per §4.4 step 3.
// Pairs are drawn from keep as it was on entry; vertices added along the
// way are not paired in turn. Pair enumeration order does not affect the
// resulting set.
func closeUnderShortestPaths(ctx context.Context, store graph.Store, arm string, keep map[string]struct{}) error {
	members := make([]string, 0, len(keep))
	for n := range keep {
		members = append(members, n)
	}
	sort.Strings(members)

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			path, err := store.ShortestPath(ctx, arm, members[i], members[j])
			if err != nil {
				return modelerrors.WrapStore(err, "shortest_path")
			}
			for _, n := range path {
				keep[n] = struct{}{}
			}
		}
	}
	return nil
}

// tagProvenance sets adm_graph_ids = {graphID} on every surviving vertex,
// per §4.4 step 5.
func tagProvenance(ctx context.Context, store graph.Store, graphID string, keep map[string]struct{}, tag string) error {
	for n := range keep {
		_, props, err := store.NodeProps(ctx, graphID, n)
		if err != nil {
			return modelerrors.WrapStore(err, "node_props")
		}
		props = props.Clone()
		encoded, err := encodeProvenance([]string{tag})
		if err != nil {
			return err
		}
		props[graph.PropADMGraphIDs] = encoded
		if err := store.UpdateNodeProps(ctx, graphID, n, props); err != nil {
			return modelerrors.WrapStore(err, "update_node_props")
		}
	}
	return nil
}

// encodeProvenance serialises a provenance set as a sorted JSON list, per
// the design note that adm_graph_ids is "a sorted string list serialised
// as JSON in the property ... and as a set in memory".
func encodeProvenance(ids []string) (string, error) {
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", modelerrors.Wrap(err, modelerrors.Malformed, "encoding provenance list")
	}
	return string(raw), nil
}
