package cbm_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/adm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/cbm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/memgraph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// seedADM builds a minimal single-node ADM graph g1/g2 sharing node "v", the
// shape scenario S4 (spec.md §8) requires, and returns an *adm.ADM
// descriptor referencing it.
func seedADM(ctx context.Context, store graph.Store, graphID string, nodeID string, props graph.Props) *adm.ADM {
	Expect(store.AddNode(ctx, graphID, nodeID, graph.ClassNetworkNode, props)).To(Succeed())
	return &adm.ADM{DelegationID: "d-" + graphID, GraphID: graphID, KeepSet: map[string]struct{}{nodeID: {}}}
}

var _ = Describe("CBM merge and unmerge", func() {
	var (
		ctx   context.Context
		store graph.Store
		b     *cbm.CBM
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memgraph.New()
		b = cbm.New(store, "cbm")
	})

	// S4: merge g1 and g2, both carrying vertex "v"; check provenance
	// after each merge and each unmerge.
	It("tracks provenance through overlapping merges and unmerges (S4)", func() {
		g1 := seedADM(ctx, store, "g1", "v", graph.Props{graph.PropSite: "RENC"})
		g2 := seedADM(ctx, store, "g2", "v", graph.Props{graph.PropSite: "RENC"})

		Expect(b.MergeADM(ctx, g1)).To(Succeed())
		prov, err := b.Provenance(ctx, "v")
		Expect(err).NotTo(HaveOccurred())
		Expect(prov).To(Equal(map[string]struct{}{"g1": {}}))

		Expect(b.MergeADM(ctx, g2)).To(Succeed())
		prov, err = b.Provenance(ctx, "v")
		Expect(err).NotTo(HaveOccurred())
		Expect(prov).To(Equal(map[string]struct{}{"g1": {}, "g2": {}}))

		Expect(b.UnmergeADM(ctx, "g1")).To(Succeed())
		prov, err = b.Provenance(ctx, "v")
		Expect(err).NotTo(HaveOccurred())
		Expect(prov).To(Equal(map[string]struct{}{"g2": {}}))

		Expect(b.UnmergeADM(ctx, "g2")).To(Succeed())
		_, err = b.Provenance(ctx, "v")
		Expect(modelerrors.Of(err, modelerrors.NotFound)).To(BeTrue())
	})

	// Invariant 4: merge is idempotent.
	It("leaves the CBM unchanged when the same ADM is merged twice", func() {
		g1 := seedADM(ctx, store, "g1", "v", graph.Props{graph.PropSite: "RENC"})

		Expect(b.MergeADM(ctx, g1)).To(Succeed())
		Expect(b.MergeADM(ctx, g1)).To(Succeed())

		prov, err := b.Provenance(ctx, "v")
		Expect(err).NotTo(HaveOccurred())
		Expect(prov).To(Equal(map[string]struct{}{"g1": {}}))
	})

	// Invariant 6: provenance completeness after a three-way merge.
	It("keeps provenance exactly equal to the contributing ADMs", func() {
		g1 := seedADM(ctx, store, "g1", "v", graph.Props{graph.PropSite: "RENC"})
		g2 := seedADM(ctx, store, "g2", "v", graph.Props{graph.PropSite: "RENC"})
		g3 := seedADM(ctx, store, "g3", "v", graph.Props{graph.PropSite: "RENC"})

		Expect(b.MergeADM(ctx, g1)).To(Succeed())
		Expect(b.MergeADM(ctx, g2)).To(Succeed())
		Expect(b.MergeADM(ctx, g3)).To(Succeed())

		prov, err := b.Provenance(ctx, "v")
		Expect(err).NotTo(HaveOccurred())
		Expect(prov).To(Equal(map[string]struct{}{"g1": {}, "g2": {}, "g3": {}}))
	})

	// Open-question resolution: conflicting scalar capacity values for the
	// same physical node across ADMs reject with ConflictingMerge.
	It("rejects a merge that disagrees with an already-merged scalar value", func() {
		g1 := seedADM(ctx, store, "g1", "v", graph.Props{
			graph.PropSite:       "RENC",
			graph.PropCapacities: `{"core":4}`,
		})
		g2 := seedADM(ctx, store, "g2", "v", graph.Props{
			graph.PropSite:       "RENC",
			graph.PropCapacities: `{"core":8}`,
		})

		Expect(b.MergeADM(ctx, g1)).To(Succeed())
		err := b.MergeADM(ctx, g2)
		Expect(err).To(HaveOccurred())
		Expect(modelerrors.Of(err, modelerrors.ConflictingMerge)).To(BeTrue())
	})
})
