// Package catalog implements C3: the single-pass walk over an ARM graph
// that parses the label_delegations/capacity_delegations annotations on
// every vertex, classifies each as a pool definition, a pool mention, or a
// singleton delegation, and feeds the results into a pair of
// delegation.Catalog indices (one for Label, one for Capacity). Grounded
// on the two-phase walk-then-validate strategy of the original
// Neo4jARMGraph._catalog_delegations: accumulate during the walk, raise
// MalformedPool/OrphanMention only once BuildIndex runs, so a pool
// mentioned before its definition still resolves correctly.
package catalog

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/delegation"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// Catalog holds the two per-kind delegation.Catalog indices produced by
// walking one ARM, plus a record of which pool id was first defined on
// which node (to detect DuplicatePoolDefinition during the walk).
type Catalog struct {
	Label    *delegation.Catalog
	Capacity *delegation.Catalog

	definedAt map[delegation.Kind]map[string]string // poolID -> defining node id
}

// annotationProperty names the two recognized vertex properties, and the
// delegation.Kind each feeds.
var annotationProperty = map[delegation.Kind]string{
	delegation.KindLabel:    graph.PropLabelDelegations,
	delegation.KindCapacity: graph.PropCapacityDelegations,
}

var poolField = map[delegation.Kind]string{
	delegation.KindLabel:    "label_pool",
	delegation.KindCapacity: "capacity_pool",
}

// Walk enumerates every vertex of the ARM graphID in store, classifies its
// delegation annotations, and builds both per-kind indices. accumulate
// controls whether BuildIndex returns the first MalformedPool/OrphanMention
// it finds or bundles every one found across the ARM (§7: "allowing the
// caller to report all issues in one pass if it chooses to accumulate").
func Walk(ctx context.Context, store graph.Store, graphID string, accumulate bool) (*Catalog, error) {
	c := &Catalog{
		Label:    delegation.NewCatalog(delegation.KindLabel),
		Capacity: delegation.NewCatalog(delegation.KindCapacity),
		definedAt: map[delegation.Kind]map[string]string{
			delegation.KindLabel:    {},
			delegation.KindCapacity: {},
		},
	}

	nodeIDs, err := store.ListNodes(ctx, graphID)
	if err != nil {
		return nil, modelerrors.WrapStore(err, "list_nodes")
	}
	if len(nodeIDs) == 0 {
		return nil, modelerrors.New(modelerrors.EmptyARM, "ARM graph %q has no vertices", graphID)
	}

	for _, nodeID := range nodeIDs {
		_, props, err := store.NodeProps(ctx, graphID, nodeID)
		if err != nil {
			return nil, modelerrors.WrapStore(err, "node_props")
		}

		for kind, propKey := range annotationProperty {
			raw, present := props.Get(propKey)
			if !present {
				continue
			}
			annotations, err := decodeAnnotations(raw)
			if err != nil {
				return nil, modelerrors.Wrap(err, modelerrors.MalformedDelegation,
					"vertex %q property %q", nodeID, propKey)
			}
			for _, ann := range annotations {
				if err := c.applyAnnotation(kind, nodeID, ann); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := c.Label.BuildIndex(accumulate); err != nil {
		return nil, err
	}
	if err := c.Capacity.BuildIndex(accumulate); err != nil {
		return nil, err
	}
	return c, nil
}

// decodeAnnotations parses a delegation property's raw JSON, accepting
// either a single annotation object or a list of them, per §4.3 step 2.
func decodeAnnotations(raw string) ([]map[string]interface{}, error) {
	trimmed := raw
	var asList []map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &asList); err == nil {
		return asList, nil
	}

	var asObject map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &asObject); err == nil {
		return []map[string]interface{}{asObject}, nil
	}

	return nil, modelerrors.New(modelerrors.MalformedDelegation,
		"delegation payload is neither an object nor a list of objects: %q", raw)
}

// applyAnnotation classifies one decoded annotation per §4.3 step 3 and
// mutates the appropriate per-kind delegation.Catalog.
func (c *Catalog) applyAnnotation(kind delegation.Kind, nodeID string, ann map[string]interface{}) error {
	delegationID, _ := ann["delegation"].(string)
	if delegationID == "" {
		delegationID = delegation.DefaultDelegationID
	}

	details := make(map[string]interface{}, len(ann))
	for k, v := range ann {
		if k == "delegation" {
			continue
		}
		details[k] = v
	}

	cat := c.indexFor(kind)

	poolID, isDefinition := ann[poolField[kind]].(string)
	mentioned, isMention := extractMentions(ann["pool"])

	if !isDefinition && !isMention {
		cat.AddSingleton(nodeID, delegationID, details)
		return nil
	}

	if isDefinition {
		if prior, ok := c.definedAt[kind][poolID]; ok && prior != nodeID {
			return modelerrors.New(modelerrors.DuplicatePoolDefinition,
				"pool %q already defined on %q, redefined on %q", poolID, prior, nodeID)
		}
		c.definedAt[kind][poolID] = nodeID

		p := cat.Pool(poolID)
		p.DelegationID = delegationID
		p.DefinedOn = nodeID
		p.Details = details
		p.AddDefinedFor(nodeID)
	}

	for _, name := range mentioned {
		cat.Pool(name).AddDefinedFor(nodeID)
	}

	return nil
}

func (c *Catalog) indexFor(kind delegation.Kind) *delegation.Catalog {
	if kind == delegation.KindLabel {
		return c.Label
	}
	return c.Capacity
}

// extractMentions normalizes the "pool" field, which per §6's grammar may
// be a bare string or a list of strings.
func extractMentions(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		return []string{v}, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		sort.Strings(out)
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// DelegationIDs returns the union of delegation ids across both Label and
// Capacity catalogs, as required by C4 step 1.
func (c *Catalog) DelegationIDs() []string {
	seen := map[string]struct{}{}
	for _, id := range c.Label.DelegationIDs() {
		seen[id] = struct{}{}
	}
	for _, id := range c.Capacity.DelegationIDs() {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeIDsFor returns the union of node ids contributed to delegationID by
// both the Label and Capacity catalogs, as required by C4 step 2.
func (c *Catalog) NodeIDsFor(delegationID string) map[string]struct{} {
	out := map[string]struct{}{}
	for n := range c.Label.NodeIDsFor(delegationID) {
		out[n] = struct{}{}
	}
	for n := range c.Capacity.NodeIDsFor(delegationID) {
		out[n] = struct{}{}
	}
	return out
}
