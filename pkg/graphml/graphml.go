// Package graphml implements the §6 external interface: reading and
// writing the GraphML property subset the ARM/ADM/CBM core recognizes.
// No GraphML library appears anywhere in the example pack, so this codec
// is built directly on stdlib encoding/xml (see DESIGN.md).
package graphml

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

// recognizedProps lists the vertex property keys of §6, in the order
// written out, for stable output.
var recognizedProps = []string{
	graph.PropName,
	graph.PropClass,
	graph.PropType,
	graph.PropModel,
	graph.PropSite,
	graph.PropNodeID,
	graph.PropCapacities,
	graph.PropLabels,
	graph.PropLabelDelegations,
	graph.PropCapacityDelegations,
	graph.PropADMGraphIDs,
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []xmlData `xml:"data"`
}

type xmlEdge struct {
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []xmlData `xml:"data"`
}

type xmlGraph struct {
	Nodes []xmlNode `xml:"node"`
	Edges []xmlEdge `xml:"edge"`
}

type xmlDocument struct {
	XMLName xml.Name `xml:"graphml"`
	Graph   xmlGraph `xml:"graph"`
}

// Write serializes the named graph's nodes and edges as GraphML, in the
// property format of §6: a "Class" data element on every node and edge,
// plus every other recognized property that is present and not the store
// sentinel "None".
func Write(ctx context.Context, w io.Writer, store graph.Store, graphID string) error {
	nodeIDs, err := store.ListNodes(ctx, graphID)
	if err != nil {
		return modelerrors.WrapStore(err, "list_nodes")
	}

	doc := xmlDocument{}
	seenEdges := map[string]struct{}{}

	for _, id := range nodeIDs {
		class, props, err := store.NodeProps(ctx, graphID, id)
		if err != nil {
			return modelerrors.WrapStore(err, "node_props")
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, toXMLNode(id, class, props))

		edges, err := store.ListEdges(ctx, graphID, id)
		if err != nil {
			return modelerrors.WrapStore(err, "list_edges")
		}
		for _, e := range edges {
			a, z := e.A, e.Z
			if a > z {
				a, z = z, a
			}
			key := a + "\x00" + z + "\x00" + string(e.Relation)
			if _, ok := seenEdges[key]; ok {
				continue
			}
			seenEdges[key] = struct{}{}
			doc.Graph.Edges = append(doc.Graph.Edges, xmlEdge{
				Source: e.A,
				Target: e.Z,
				Data:   []xmlData{{Key: graph.PropClass, Value: string(e.Relation)}},
			})
		}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return modelerrors.Wrap(err, modelerrors.Malformed, "encoding GraphML")
	}
	return enc.Flush()
}

func toXMLNode(id string, class graph.Class, props graph.Props) xmlNode {
	n := xmlNode{ID: id}
	n.Data = append(n.Data, xmlData{Key: graph.PropClass, Value: string(class)})
	for _, key := range recognizedProps {
		if key == graph.PropClass {
			continue
		}
		if v, ok := props.Get(key); ok {
			n.Data = append(n.Data, xmlData{Key: key, Value: v})
		}
	}
	return n
}

// Read parses a GraphML document and loads its nodes and edges into a
// fresh graph graphID within store. graphID must not already exist.
func Read(ctx context.Context, r io.Reader, store graph.Store, graphID string) error {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return modelerrors.Wrap(err, modelerrors.Malformed, "decoding GraphML")
	}

	for _, n := range doc.Graph.Nodes {
		class := graph.Class(graph.NoneSentinel)
		props := graph.Props{}
		for _, d := range n.Data {
			if d.Key == graph.PropClass {
				class = graph.Class(d.Value)
				continue
			}
			props[d.Key] = d.Value
		}
		if err := store.AddNode(ctx, graphID, n.ID, class, props); err != nil {
			return modelerrors.WrapStore(err, "add_node")
		}
	}

	for _, e := range doc.Graph.Edges {
		relation := graph.Relation(graph.NoneSentinel)
		props := graph.Props{}
		for _, d := range e.Data {
			if d.Key == graph.PropClass {
				relation = graph.Relation(d.Value)
				continue
			}
			props[d.Key] = d.Value
		}
		if err := store.AddEdge(ctx, graphID, e.Source, e.Target, relation, props); err != nil {
			return modelerrors.WrapStore(err, "add_edge")
		}
	}
	return nil
}
