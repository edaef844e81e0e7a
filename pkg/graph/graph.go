// Package graph defines C6, the contract the ARM/ADM/CBM core requires of
// an external graph store, plus the shared vocabulary (node classes,
// relation kinds, property sentinels) every other package in this module
// builds on.
package graph

import "context"

// Class is the closed set of vertex classes in the substrate multigraph.
type Class string

const (
	ClassNetworkNode     Class = "NetworkNode"
	ClassComponent       Class = "Component"
	ClassSwitchFabric    Class = "SwitchFabric"
	ClassConnectionPoint Class = "ConnectionPoint"
	ClassLink            Class = "Link"
	ClassNetworkService  Class = "NetworkService"
)

// Relation is the closed set of edge kinds.
type Relation string

const (
	RelationHas        Relation = "has"
	RelationConnects   Relation = "connects"
	RelationDependsOn  Relation = "dependsOn"
)

// NoneSentinel is the store convention for "property present but absent".
const NoneSentinel = "None"

// Property keys recognised on vertices, per the external interface section.
const (
	PropName                = "Name"
	PropClass               = "Class"
	PropType                = "Type"
	PropModel               = "Model"
	PropSite                = "Site"
	PropNodeID              = "NodeID"
	PropCapacities          = "Capacities"
	PropLabels              = "Labels"
	PropLabelDelegations    = "label_delegations"
	PropCapacityDelegations = "capacity_delegations"
	PropADMGraphIDs         = "adm_graph_ids"
	PropResourceType        = "resource_type"
	PropResourceModel       = "resource_model"
)

// Props is a vertex's property map. Keys and values are always strings,
// per the design's property-multigraph data model.
type Props map[string]string

// Clone returns a shallow copy safe to mutate independently of the
// original map.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get returns a property value, treating the store's "None" sentinel as
// absent.
func (p Props) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == NoneSentinel {
		return "", false
	}
	return v, true
}

// Edge describes one edge as returned by ListEdges/bulk operations.
type Edge struct {
	A, Z     string
	Relation Relation
	Props    Props
}

// Store is the synchronous, per-call-atomic contract the CORE requires of
// an external graph store (§4.6 / C6). Every method operates on a single
// named graph identified by graphID; the CORE never assumes transactional
// composition across multiple calls (§5).
type Store interface {
	// ListNodes returns every node id in the named graph.
	ListNodes(ctx context.Context, graphID string) ([]string, error)

	// NodeProps returns a node's class and property map.
	NodeProps(ctx context.Context, graphID, nodeID string) (Class, Props, error)

	// AddNode inserts a new node. Implementations should error if nodeID
	// already exists in graphID.
	AddNode(ctx context.Context, graphID, nodeID string, class Class, props Props) error

	// UpdateNodeProps replaces a node's property map wholesale.
	UpdateNodeProps(ctx context.Context, graphID, nodeID string, props Props) error

	// RemoveNode deletes a node and its incident edges.
	RemoveNode(ctx context.Context, graphID, nodeID string) error

	// ListEdges returns every edge incident on nodeID (both directions).
	ListEdges(ctx context.Context, graphID, nodeID string) ([]Edge, error)

	// AddEdge inserts an edge if an identical one is not already present.
	AddEdge(ctx context.Context, graphID, a, z string, relation Relation, props Props) error

	// ShortestPath returns the nodes on a shortest path from a to z,
	// inclusive of both endpoints, or an empty slice if none exists.
	// Tie-breaking between equal-length paths must be deterministic for a
	// given store instance.
	ShortestPath(ctx context.Context, graphID, a, z string) ([]string, error)

	// CloneGraph performs a bulk deep copy of srcID into a fresh dstID.
	CloneGraph(ctx context.Context, srcID, dstID string) error

	// DeleteGraph removes an entire named graph.
	DeleteGraph(ctx context.Context, graphID string) error
}
