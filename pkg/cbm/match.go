// match.go implements the three substrate-matching queries of §4.5:
// nodes_matching, intersite_links, and path_with_hops.
package cbm

import (
	"context"
	"sort"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// ResourceTypeSharedNIC is the one component kind exempt from exclusive
// binding: multiple logical requests may be satisfied by a single
// physical SharedNIC via SR-IOV, per §4.5 and testable property 8.
const ResourceTypeSharedNIC = "SharedNIC"

// ComponentRequest names one requested physical component. A multiset
// request ("2x SharedNIC ConnectX-6") is expressed as repeated entries
// with the same Type/Model.
type ComponentRequest struct {
	Type  string
	Model string // empty means any model satisfies the type
}

type componentKey struct{ typ, model string }

// NodesMatching returns every vertex of the given class whose scalar
// properties satisfy want and, if required is non-empty, which has
// Component children satisfying the multiset required under the
// SharedNIC/SR-IOV rule.
func (c *CBM) NodesMatching(ctx context.Context, class graph.Class, want map[string]string, required []ComponentRequest) ([]string, error) {
	nodeIDs, err := c.store.ListNodes(ctx, c.graphID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_nodes")
	}

	var matches []string
	for _, n := range nodeIDs {
		nodeClass, props, err := c.store.NodeProps(ctx, c.graphID, n)
		if err != nil {
			return nil, modelerrors.WrapStore(err, "node_props")
		}
		if nodeClass != class {
			continue
		}
		if !propsSatisfy(props, want) {
			continue
		}
		if len(required) == 0 {
			matches = append(matches, n)
			continue
		}

		components, err := c.childComponents(ctx, n)
		if err != nil {
			return nil, err
		}
		if satisfiesComponents(components, required) {
			matches = append(matches, n)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func propsSatisfy(props graph.Props, want map[string]string) bool {
	for k, v := range want {
		got, present := props.Get(k)
		if !present || got != v {
			return false
		}
	}
	return true
}

// childComponents returns the (resource_type, resource_model) of every
// Component reachable from node via a "has" edge.
func (c *CBM) childComponents(ctx context.Context, node string) ([]componentKey, error) {
	edges, err := c.store.ListEdges(ctx, c.graphID, node)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_edges")
	}

	var out []componentKey
	for _, e := range edges {
		if e.Relation != graph.RelationHas || e.A != node {
			continue
		}
		childClass, props, err := c.store.NodeProps(ctx, c.graphID, e.Z)
		if err != nil {
			return nil, modelerrors.WrapStore(err, "node_props")
		}
		if childClass != graph.ClassComponent {
			continue
		}
		typ, _ := props.Get(graph.PropResourceType)
		model, _ := props.Get(graph.PropResourceModel)
		out = append(out, componentKey{typ: typ, model: model})
	}
	return out, nil
}

// satisfiesComponents applies the §4.5 binding rules: SharedNIC requests
// of the same model are satisfied by a single physical unit (SR-IOV);
// every other kind requires one distinct physical unit per request. A
// request with an empty Model is a wildcard over that Type: it's tallied
// against every physical unit of that Type regardless of model, per
// ComponentRequest's "empty means any model satisfies the type" contract.
func satisfiesComponents(have []componentKey, required []ComponentRequest) bool {
	haveCounts := map[componentKey]int{}
	haveByType := map[string]int{}
	for _, h := range have {
		haveCounts[h]++
		haveByType[h.typ]++
	}

	type needKey struct {
		typ      string
		model    string
		anyModel bool
	}
	needCounts := map[needKey]int{}
	for _, r := range required {
		needCounts[needKey{typ: r.Type, model: r.Model, anyModel: r.Model == ""}]++
	}

	needByType := map[string]int{}
	for key, need := range needCounts {
		got := haveCounts[componentKey{typ: key.typ, model: key.model}]
		if key.anyModel {
			got = haveByType[key.typ]
		}
		if key.typ == ResourceTypeSharedNIC {
			if got < 1 {
				return false
			}
			continue
		}
		if got < need {
			return false
		}
		needByType[key.typ] += need
	}
	// Wildcard and model-specific requests of one exclusive type draw on
	// the same physical units, so their total must fit as well.
	for typ, need := range needByType {
		if need > haveByType[typ] {
			return false
		}
	}
	return true
}

// IntersiteLink is one cross-site Link found by IntersiteLinks.
type IntersiteLink struct {
	A, Link, Z string
}

// IntersiteLinks returns every Link whose two endpoints trace up to
// NetworkNodes/switches on different sites, reported exactly once
// regardless of endpoint order (testable property 7).
func (c *CBM) IntersiteLinks(ctx context.Context) ([]IntersiteLink, error) {
	nodeIDs, err := c.store.ListNodes(ctx, c.graphID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_nodes")
	}

	var out []IntersiteLink
	for _, n := range nodeIDs {
		class, _, err := c.store.NodeProps(ctx, c.graphID, n)
		if err != nil {
			return nil, modelerrors.WrapStore(err, "node_props")
		}
		if class != graph.ClassLink {
			continue
		}

		endpoints, err := c.linkEndpoints(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(endpoints) != 2 {
			continue
		}

		siteA, err := c.ancestorSite(ctx, endpoints[0])
		if err != nil {
			return nil, err
		}
		siteZ, err := c.ancestorSite(ctx, endpoints[1])
		if err != nil {
			return nil, err
		}
		if siteA == "" || siteZ == "" || siteA == siteZ {
			continue
		}

		a, z := endpoints[0], endpoints[1]
		if a > z {
			a, z = z, a
		}
		out = append(out, IntersiteLink{A: a, Link: n, Z: z})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Link != out[j].Link {
			return out[i].Link < out[j].Link
		}
		return out[i].A < out[j].A
	})
	return out, nil
}

func (c *CBM) linkEndpoints(ctx context.Context, linkID string) ([]string, error) {
	edges, err := c.store.ListEdges(ctx, c.graphID, linkID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_edges")
	}
	seen := map[string]struct{}{}
	var out []string
	for _, e := range edges {
		if e.Relation != graph.RelationConnects {
			continue
		}
		other := e.A
		if other == linkID {
			other = e.Z
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	sort.Strings(out)
	return out, nil
}

// ancestorSite climbs "has" edges from node towards its owning ancestor
// until it finds a Site property, so a Link's endpoint (typically a
// ConnectionPoint or SwitchFabric) resolves to the NetworkNode/switch
// that hosts it.
func (c *CBM) ancestorSite(ctx context.Context, node string) (string, error) {
	visited := map[string]struct{}{}
	cur := node
	for i := 0; i < 64; i++ { // guards against a malformed cyclic "has" chain
		if _, ok := visited[cur]; ok {
			return "", nil
		}
		visited[cur] = struct{}{}

		_, props, err := c.store.NodeProps(ctx, c.graphID, cur)
		if err != nil {
			return "", modelerrors.WrapStore(err, "node_props")
		}
		if site, ok := props.Get(graph.PropSite); ok {
			return site, nil
		}

		parent, err := c.parentOf(ctx, cur)
		if err != nil {
			return "", err
		}
		if parent == "" {
			return "", nil
		}
		cur = parent
	}
	return "", nil
}

// parentOf returns the node on the "has" side of an edge incident on
// child, or "" if none is found.
func (c *CBM) parentOf(ctx context.Context, child string) (string, error) {
	edges, err := c.store.ListEdges(ctx, c.graphID, child)
	if err != nil {
		return "", modelerrors.WrapStore(err, "list_edges")
	}
	for _, e := range edges {
		if e.Relation == graph.RelationHas && e.Z == child {
			return e.A, nil
		}
	}
	return "", nil
}

// PathWithHops returns the nodes on a shortest path from a to z that
// visits every node in hops, in order, concatenating per-segment shortest
// paths. Returns an empty slice (not an error) if any waypoint is absent,
// any segment is unreachable, or the total path exceeds cutoff edges —
// query failures are normal return values per spec.md §7.
func (c *CBM) PathWithHops(ctx context.Context, a, z string, hops []string, cutoff int) ([]string, error) {
	waypoints := make([]string, 0, len(hops)+2)
	waypoints = append(waypoints, a)
	waypoints = append(waypoints, hops...)
	waypoints = append(waypoints, z)

	var full []string
	for i := 0; i < len(waypoints)-1; i++ {
		seg, err := c.store.ShortestPath(ctx, c.graphID, waypoints[i], waypoints[i+1])
		if modelerrors.Of(err, modelerrors.NotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, modelerrors.WrapStore(err, "shortest_path")
		}
		if len(seg) == 0 {
			return nil, nil
		}
		if i > 0 {
			seg = seg[1:] // elide the waypoint already appended by the previous segment
		}
		full = append(full, seg...)
	}

	if cutoff >= 0 && len(full)-1 > cutoff {
		return nil, nil
	}
	return full, nil
}
