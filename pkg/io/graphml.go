package io

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// GraphMLNamespace is written on the root element.
const GraphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphmlDoc struct {
	XMLName xml.Name       `xml:"graphml"`
	Keys    []graphmlKey   `xml:"key"`
	Graphs  []graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID      string  `xml:"id,attr"`
	For     string  `xml:"for,attr"`
	Name    string  `xml:"attr.name,attr"`
	Type    string  `xml:"attr.type,attr"`
	Default *string `xml:"default,omitempty"`
}

type graphmlGraph struct {
	ID          string        `xml:"id,attr,omitempty"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Data        []graphmlData `xml:"data"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	ID       string        `xml:"id,attr,omitempty"`
	Source   string        `xml:"source,attr"`
	Target   string        `xml:"target,attr"`
	Directed string        `xml:"directed,attr,omitempty"`
	Data     []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// GraphML attribute domains.
const (
	forGraph = "graph"
	forNode  = "node"
	forEdge  = "edge"
	forAll   = "all"
)

// =============================================================================
// Import
// =============================================================================

// ReadGraphML decodes the first graph of a GraphML document.
//
// The edgedefault attribute selects the directedness; an edge whose directed
// attribute disagrees with it makes the graph [graph.Mixed]. Node IDs become
// vertex names and vertices are numbered in document order. <data> values
// are decoded by their key's attr.type (boolean → bool, int and long →
// int64, float and double → float64, anything else → string) and stored
// under attr.name; key defaults are applied to elements without a value.
func ReadGraphML(r io.Reader) (*graph.Graph, error) {
	var doc graphmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "decode graphml")
	}
	if len(doc.Graphs) == 0 {
		return nil, nxerrors.New(nxerrors.ErrCodeInvalidFormat, "graphml: no <graph> element")
	}
	gd := doc.Graphs[0]

	keys := make(map[string]graphmlKey, len(doc.Keys))
	for _, k := range doc.Keys {
		name := k.Name
		if name == "" {
			name = k.ID
		}
		if err := nxerrors.ValidateAttributeName(name); err != nil {
			return nil, fmt.Errorf("key %s: %w", k.ID, err)
		}
		if graph.IsReserved(name) {
			return nil, nxerrors.MetadataContract(&nxerrors.KeyError{Key: name, Err: graph.ErrReservedKey}, "graphml key %s", k.ID)
		}
		k.Name = name
		if k.For == "" {
			k.For = forAll
		}
		keys[k.ID] = k
	}

	defaultDirected, err := parseEdgeDefault(gd.EdgeDefault)
	if err != nil {
		return nil, err
	}
	directedness := graph.Undirected
	if defaultDirected {
		directedness = graph.Directed
	}
	edgeDirected := make([]bool, len(gd.Edges))
	for i, e := range gd.Edges {
		edgeDirected[i] = defaultDirected
		if e.Directed != "" {
			d, err := strconv.ParseBool(e.Directed)
			if err != nil {
				return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "edge %s: directed attribute", e.ID)
			}
			edgeDirected[i] = d
		}
		if edgeDirected[i] != defaultDirected {
			directedness = graph.Mixed
		}
	}

	g, err := graph.New(directedness, graph.RestrictionsNone)
	if err != nil {
		return nil, err
	}
	if err := applyData(g.Metadata(), forGraph, gd.Data, keys); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}

	byID := make(map[string]*graph.Vertex, len(gd.Nodes))
	for _, n := range gd.Nodes {
		if n.ID == "" {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "node without id")
		}
		if _, dup := byID[n.ID]; dup {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "node %s: duplicate id", n.ID)
		}
		v := g.AddNamedVertex(n.ID)
		byID[n.ID] = v
		if err := applyData(v.Metadata(), forNode, n.Data, keys); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	for i, ge := range gd.Edges {
		label := ge.ID
		if label == "" {
			label = ge.Source + "->" + ge.Target
		}
		src, ok := byID[ge.Source]
		if !ok {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "edge %s: unknown source %s", label, ge.Source)
		}
		dst, ok := byID[ge.Target]
		if !ok {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "edge %s: unknown target %s", label, ge.Target)
		}
		e, err := g.AddEdge(src, dst, edgeDirected[i])
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", label, err)
		}
		if err := applyData(e.Metadata(), forEdge, ge.Data, keys); err != nil {
			return nil, fmt.Errorf("edge %s: %w", label, err)
		}
	}
	return g, nil
}

// ImportGraphML reads the GraphML file at path.
func ImportGraphML(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.Wrap(nxerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraphML(f)
}

func parseEdgeDefault(s string) (bool, error) {
	switch s {
	case "", "undirected":
		return false, nil
	case "directed":
		return true, nil
	}
	return false, nxerrors.New(nxerrors.ErrCodeInvalidFormat, "graphml: unknown edgedefault %q", s)
}

func applyData(m *graph.Metadata, domain string, data []graphmlData, keys map[string]graphmlKey) error {
	seen := make(map[string]bool, len(data))
	for _, d := range data {
		k, ok := keys[d.Key]
		if !ok {
			return nxerrors.New(nxerrors.ErrCodeInvalidInput, "undeclared key %s", d.Key)
		}
		if k.For != domain && k.For != forAll {
			return nxerrors.New(nxerrors.ErrCodeInvalidInput, "key %s is declared for %s", d.Key, k.For)
		}
		v, err := parseValue(k.Type, d.Value)
		if err != nil {
			return fmt.Errorf("key %s: %w", k.Name, err)
		}
		if err := m.Set(k.Name, v); err != nil {
			return err
		}
		seen[k.ID] = true
	}
	for _, k := range sortedGraphMLKeys(keys) {
		if k.Default == nil || seen[k.ID] || (k.For != domain && k.For != forAll) {
			continue
		}
		v, err := parseValue(k.Type, *k.Default)
		if err != nil {
			return fmt.Errorf("key %s default: %w", k.Name, err)
		}
		if err := m.Set(k.Name, v); err != nil {
			return err
		}
	}
	return nil
}

func sortedGraphMLKeys(keys map[string]graphmlKey) []graphmlKey {
	out := make([]graphmlKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b graphmlKey) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func parseValue(typ, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	var (
		v   any
		err error
	)
	switch typ {
	case "boolean":
		v, err = strconv.ParseBool(s)
	case "int", "long":
		v, err = strconv.ParseInt(s, 10, 64)
	case "float", "double":
		v, err = strconv.ParseFloat(s, 64)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "parse %s value %q", typ, raw)
	}
	return v, nil
}

// =============================================================================
// Export
// =============================================================================

// WriteGraphML encodes g as a GraphML document.
//
// Node IDs are the vertex names when every vertex has a distinct non-empty
// name, and "n<ID>" otherwise. Public metadata becomes <data> values; a key
// whose values do not share one GraphML type is written as string. Layout
// state in reserved metadata is not exported.
func WriteGraphML(g *graph.Graph, w io.Writer) error {
	if g == nil {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "graph is nil")
	}
	kb := newKeyBuilder()
	gd := graphmlGraph{ID: "G", EdgeDefault: "undirected"}
	defaultDirected := g.Directedness() == graph.Directed
	if defaultDirected {
		gd.EdgeDefault = "directed"
	}

	kb.collect(forGraph, g.Metadata())
	for _, v := range g.Vertices() {
		kb.collect(forNode, v.Metadata())
	}
	for _, e := range g.Edges() {
		kb.collect(forEdge, e.Metadata())
	}

	gd.Data = kb.data(forGraph, g.Metadata())
	nodeID := nodeIDs(g)
	for _, v := range g.Vertices() {
		gd.Nodes = append(gd.Nodes, graphmlNode{ID: nodeID(v), Data: kb.data(forNode, v.Metadata())})
	}
	for _, e := range g.Edges() {
		ge := graphmlEdge{
			ID:     fmt.Sprintf("e%d", e.ID()),
			Source: nodeID(e.Vertex1()),
			Target: nodeID(e.Vertex2()),
			Data:   kb.data(forEdge, e.Metadata()),
		}
		if e.IsDirected() != defaultDirected {
			ge.Directed = strconv.FormatBool(e.IsDirected())
		}
		gd.Edges = append(gd.Edges, ge)
	}

	doc := graphmlDoc{
		XMLName: xml.Name{Space: GraphMLNamespace, Local: "graphml"},
		Keys:    kb.keys(),
		Graphs:  []graphmlGraph{gd},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "encode graphml")
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExportGraphML writes g to a GraphML file at path.
func ExportGraphML(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGraphML(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nodeIDs(g *graph.Graph) func(*graph.Vertex) string {
	names := make(map[string]bool, g.VertexCount())
	useNames := true
	for _, v := range g.Vertices() {
		if v.Name() == "" || names[v.Name()] {
			useNames = false
			break
		}
		names[v.Name()] = true
	}
	if useNames {
		return func(v *graph.Vertex) string { return v.Name() }
	}
	return func(v *graph.Vertex) string { return fmt.Sprintf("n%d", v.ID()) }
}

type keySlot struct {
	domain, name string
}

// keyBuilder assigns GraphML key IDs and types to metadata names.
type keyBuilder struct {
	types map[keySlot]string
}

func newKeyBuilder() *keyBuilder {
	return &keyBuilder{types: make(map[keySlot]string)}
}

func (kb *keyBuilder) collect(domain string, m *graph.Metadata) {
	for _, name := range m.PublicKeys() {
		raw, _ := m.Get(name)
		slot := keySlot{domain, name}
		t := graphMLType(raw)
		if prev, ok := kb.types[slot]; ok && prev != t {
			t = "string"
		}
		kb.types[slot] = t
	}
}

func (kb *keyBuilder) slots() []keySlot {
	out := make([]keySlot, 0, len(kb.types))
	for s := range kb.types {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b keySlot) int {
		if c := strings.Compare(a.domain, b.domain); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return out
}

func (kb *keyBuilder) id(s keySlot) string {
	return s.domain[:1] + "_" + s.name
}

func (kb *keyBuilder) keys() []graphmlKey {
	var out []graphmlKey
	for _, s := range kb.slots() {
		out = append(out, graphmlKey{ID: kb.id(s), For: s.domain, Name: s.name, Type: kb.types[s]})
	}
	return out
}

func (kb *keyBuilder) data(domain string, m *graph.Metadata) []graphmlData {
	var out []graphmlData
	for _, name := range m.PublicKeys() {
		raw, _ := m.Get(name)
		out = append(out, graphmlData{Key: kb.id(keySlot{domain, name}), Value: formatValue(raw)})
	}
	return out
}

func graphMLType(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return "long"
	case float32, float64:
		return "double"
	}
	return "string"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
