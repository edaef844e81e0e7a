// Package delegation implements C2: the in-memory Delegation and Pool
// entities, their per-kind indices, and the invariants a Pool must satisfy
// before it can be looked up by delegation id.
package delegation

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// Kind distinguishes label delegations/pools from capacity ones. Pools and
// Delegations are parameterised by Kind rather than generic, matching the
// design's "two independent instances, no runtime dispatch" guidance.
type Kind string

const (
	KindLabel    Kind = "label"
	KindCapacity Kind = "capacity"
)

// DefaultDelegationID is substituted when an annotation omits "delegation".
const DefaultDelegationID = "default"

// Delegation is a singleton pledge of the resources on one node, not
// associated with any pool.
type Delegation struct {
	Kind         Kind
	DefinedOn    string
	DelegationID string
	Details      map[string]interface{}
}

// Pool is a named reservoir of labels or capacities, defined on one node
// but spanning a set of member nodes.
type Pool struct {
	Kind         Kind
	PoolID       string
	DelegationID string
	DefinedOn    string
	DefinedFor   map[string]struct{}
	Details      map[string]interface{}
}

func newPool(kind Kind, poolID string) *Pool {
	return &Pool{Kind: kind, PoolID: poolID, DefinedFor: map[string]struct{}{}}
}

// AddDefinedFor records that node is a member of this pool.
func (p *Pool) AddDefinedFor(node string) {
	p.DefinedFor[node] = struct{}{}
}

// validate enforces the four pool invariants from the design: a delegation
// id, a defining node that is itself a member, a non-empty membership, and
// a non-nil details map.
func (p *Pool) validate() error {
	if p.DefinedOn == "" && p.Details == nil {
		// Mentioned on one or more nodes but never defined anywhere: a
		// more specific diagnosis than the generic MalformedPool below.
		return modelerrors.New(modelerrors.OrphanMention, "pool %q is mentioned but never defined", p.PoolID)
	}
	if p.DelegationID == "" {
		return modelerrors.New(modelerrors.MalformedPool, "pool %q has no delegation id", p.PoolID)
	}
	if p.DefinedOn == "" {
		return modelerrors.New(modelerrors.MalformedPool, "pool %q is not defined on any node", p.PoolID)
	}
	if len(p.DefinedFor) == 0 {
		return modelerrors.New(modelerrors.MalformedPool, "pool %q is not mentioned on any node", p.PoolID)
	}
	if _, ok := p.DefinedFor[p.DefinedOn]; !ok {
		return modelerrors.New(modelerrors.MalformedPool, "pool %q is not mentioned on the node where it is defined", p.PoolID)
	}
	if p.Details == nil {
		return modelerrors.New(modelerrors.MalformedPool, "pool %q has no resource details", p.PoolID)
	}
	return nil
}

// Catalog holds one kind's pools and singleton delegations plus the
// delegation-id indices derived from them by BuildIndex.
type Catalog struct {
	kind Kind

	poolsByID    map[string]*Pool
	singletons   map[string][]Delegation
	poolsByDel   map[string][]*Pool
	indexed      bool
}

// NewCatalog creates an empty per-kind catalog.
func NewCatalog(kind Kind) *Catalog {
	return &Catalog{
		kind:       kind,
		poolsByID:  map[string]*Pool{},
		singletons: map[string][]Delegation{},
	}
}

// AddSingleton appends a singleton delegation under delegationID.
func (c *Catalog) AddSingleton(definedOn, delegationID string, details map[string]interface{}) {
	c.singletons[delegationID] = append(c.singletons[delegationID], Delegation{
		Kind:         c.kind,
		DefinedOn:    definedOn,
		DelegationID: delegationID,
		Details:      details,
	})
}

// Pool looks up a pool by id, creating an empty one on first mention. The
// zero-value pool returned on first creation has an empty DefinedFor and a
// nil Details map until a defining annotation fills them in.
func (c *Catalog) Pool(poolID string) *Pool {
	p, ok := c.poolsByID[poolID]
	if !ok {
		p = newPool(c.kind, poolID)
		c.poolsByID[poolID] = p
	}
	return p
}

// BuildIndex validates every pool known to the catalog and populates the
// delegation-id index. In strict mode it returns on the first invalid
// pool (the semantics catalog.Catalog relies on); in accumulate mode it
// keeps validating and returns every failure bundled in a
// *multierror.Error, letting a caller report all MalformedPool issues
// found across one ARM in a single pass.
func (c *Catalog) BuildIndex(accumulate bool) error {
	byDel := map[string][]*Pool{}
	var result error

	ids := make([]string, 0, len(c.poolsByID))
	for id := range c.poolsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := c.poolsByID[id]
		if err := p.validate(); err != nil {
			if !accumulate {
				return err
			}
			result = multierror.Append(result, err)
			continue
		}
		byDel[p.DelegationID] = append(byDel[p.DelegationID], p)
	}

	if result != nil {
		return result
	}

	c.poolsByDel = byDel
	c.indexed = true
	return nil
}

// DelegationIDs returns every delegation id known to this catalog, across
// both pools and singleton delegations.
func (c *Catalog) DelegationIDs() []string {
	seen := map[string]struct{}{}
	if c.indexed {
		for id := range c.poolsByDel {
			seen[id] = struct{}{}
		}
	}
	for id := range c.singletons {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeIDsFor returns the union of node ids contributed by delegationID:
// every pool's DefinedFor set plus every singleton's DefinedOn node.
func (c *Catalog) NodeIDsFor(delegationID string) map[string]struct{} {
	out := map[string]struct{}{}
	if c.indexed {
		for _, p := range c.poolsByDel[delegationID] {
			for n := range p.DefinedFor {
				out[n] = struct{}{}
			}
		}
	}
	for _, d := range c.singletons[delegationID] {
		out[d.DefinedOn] = struct{}{}
	}
	return out
}

// Pools returns the pools indexed under delegationID, or nil if BuildIndex
// has not been run or the id is unknown.
func (c *Catalog) Pools(delegationID string) []*Pool {
	if !c.indexed {
		return nil
	}
	return c.poolsByDel[delegationID]
}

// Singletons returns the singleton delegations recorded under delegationID.
func (c *Catalog) Singletons(delegationID string) []Delegation {
	return c.singletons[delegationID]
}
