package io

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// Restriction names used in the "restrictions" array.
const (
	RestrictionNoDuplicateEdges = "no-duplicate-edges"
	RestrictionNoSelfLoops      = "no-self-loops"
)

type graphDoc struct {
	Directedness string           `json:"directedness"`
	Restrictions []string         `json:"restrictions,omitempty"`
	Meta         map[string]any   `json:"meta,omitempty"`
	Bounds       *boxDoc          `json:"bounds,omitempty"`
	LayoutSubset []graph.VertexID `json:"layout_subset,omitempty"`
	Vertices     []vertexDoc      `json:"vertices"`
	Edges        []edgeDoc        `json:"edges"`
}

type vertexDoc struct {
	ID       graph.VertexID `json:"id"`
	Name     string         `json:"name,omitempty"`
	Location *pointDoc      `json:"location,omitempty"`
	Locked   bool           `json:"locked,omitempty"`
	Polar    *polarDoc      `json:"polar,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type edgeDoc struct {
	ID       graph.EdgeID   `json:"id,omitempty"`
	From     graph.VertexID `json:"from"`
	To       graph.VertexID `json:"to"`
	Directed *bool          `json:"directed,omitempty"`
	Curve    []pointDoc     `json:"curve,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type pointDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type boxDoc struct {
	Min pointDoc `json:"min"`
	Max pointDoc `json:"max"`
}

type polarDoc struct {
	R     float64 `json:"r"`
	Angle float64 `json:"angle"`
}

func toPoint(v r2.Vec) pointDoc { return pointDoc{X: v.X, Y: v.Y} }

func (p pointDoc) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func (b boxDoc) box() r2.Box { return r2.Box{Min: b.Min.vec(), Max: b.Max.vec()} }

func toBox(b r2.Box) *boxDoc { return &boxDoc{Min: toPoint(b.Min), Max: toPoint(b.Max)} }

func boolPtr(b bool) *bool { return &b }

// =============================================================================
// Export
// =============================================================================

// WriteJSON encodes g as indented JSON and writes it to w.
// Vertices and edges are written in ID order; the output can be re-imported
// with [ReadJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	doc, err := toDoc(g)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "encode graph")
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalGraph returns the compact JSON encoding of g. Equal graphs produce
// equal bytes: elements are ordered by ID and meta keys are sorted.
func MarshalGraph(g *graph.Graph) ([]byte, error) {
	doc, err := toDoc(g)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "encode graph")
	}
	return data, nil
}

func toDoc(g *graph.Graph) (*graphDoc, error) {
	if g == nil {
		return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "graph is nil")
	}
	doc := &graphDoc{
		Directedness: g.Directedness().String(),
		Meta:         publicMeta(g.Metadata()),
		Vertices:     make([]vertexDoc, 0, g.VertexCount()),
		Edges:        make([]edgeDoc, 0, g.EdgeCount()),
	}
	if g.Restrictions().Has(graph.NoDuplicateEdges) {
		doc.Restrictions = append(doc.Restrictions, RestrictionNoDuplicateEdges)
	}
	if g.Restrictions().Has(graph.NoSelfLoops) {
		doc.Restrictions = append(doc.Restrictions, RestrictionNoSelfLoops)
	}

	bounds, ok, err := graph.TryGetValue(g.Metadata(), graph.LayoutBounds)
	if err != nil {
		return nil, err
	}
	if ok {
		doc.Bounds = toBox(bounds)
	}
	subset, _, err := graph.TryGetValue(g.Metadata(), graph.LayOutTheseVerticesOnly)
	if err != nil {
		return nil, err
	}
	doc.LayoutSubset = subset

	for _, v := range g.Vertices() {
		vd := vertexDoc{ID: v.ID(), Name: v.Name(), Locked: v.IsLocked(), Meta: publicMeta(v.Metadata())}
		if p := v.Location(); p != (r2.Vec{}) {
			pd := toPoint(p)
			vd.Location = &pd
		}
		pc, ok, err := graph.TryGetValue(v.Metadata(), graph.PolarLayoutCoordinates)
		if err != nil {
			return nil, err
		}
		if ok {
			vd.Polar = &polarDoc{R: pc.R, Angle: pc.Angle}
		}
		doc.Vertices = append(doc.Vertices, vd)
	}

	for _, e := range g.Edges() {
		ed := edgeDoc{ID: e.ID(), From: e.Vertex1().ID(), To: e.Vertex2().ID(), Meta: publicMeta(e.Metadata())}
		if e.IsDirected() {
			ed.Directed = boolPtr(true)
		}
		curve, _, err := graph.TryGetValue(e.Metadata(), graph.EdgeCurvePoints)
		if err != nil {
			return nil, err
		}
		for _, p := range curve {
			ed.Curve = append(ed.Curve, toPoint(p))
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return doc, nil
}

func publicMeta(m *graph.Metadata) map[string]any {
	keys := m.PublicKeys()
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k], _ = m.Get(k)
	}
	return out
}

// =============================================================================
// Import
// =============================================================================

// ReadJSON decodes a JSON graph from r.
//
// ReadJSON returns an INVALID_FORMAT error for malformed JSON, an
// INVALID_INPUT error for unknown directedness or restriction names,
// duplicate or missing vertex IDs and edges referencing unknown vertices, a
// METADATA_CONTRACT_VIOLATION for reserved or invalid meta keys, and the
// graph's STRUCTURAL_VIOLATION errors for edges the graph does not accept.
// Errors name the vertex or edge that caused them.
//
// The returned graph is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var doc graphDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return fromDoc(&doc)
}

// ImportJSON reads the JSON file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.Wrap(nxerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// UnmarshalGraph decodes the output of [MarshalGraph] or [WriteJSON].
func UnmarshalGraph(data []byte) (*graph.Graph, error) {
	return ReadJSON(bytes.NewReader(data))
}

func fromDoc(doc *graphDoc) (*graph.Graph, error) {
	directedness := graph.Undirected
	if doc.Directedness != "" {
		d, err := graph.ParseDirectedness(doc.Directedness)
		if err != nil {
			return nil, nxerrors.Wrap(nxerrors.ErrCodeInvalidInput, err, "graph directedness")
		}
		directedness = d
	}
	var restrictions graph.Restrictions
	for _, name := range doc.Restrictions {
		switch name {
		case RestrictionNoDuplicateEdges:
			restrictions |= graph.NoDuplicateEdges
		case RestrictionNoSelfLoops:
			restrictions |= graph.NoSelfLoops
		default:
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "unknown restriction %q", name)
		}
	}
	g, err := graph.New(directedness, restrictions)
	if err != nil {
		return nil, err
	}
	if err := setMeta(g.Metadata(), doc.Meta); err != nil {
		return nil, fmt.Errorf("graph meta: %w", err)
	}
	if doc.Bounds != nil {
		graph.SetValue(g.Metadata(), graph.LayoutBounds, doc.Bounds.box())
	}

	vertices := slices.Clone(doc.Vertices)
	slices.SortStableFunc(vertices, func(a, b vertexDoc) int { return cmp.Compare(a.ID, b.ID) })
	for i, vd := range vertices {
		if vd.ID <= 0 {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "vertex %q: id must be positive, got %d", vd.Name, vd.ID)
		}
		if i > 0 && vertices[i-1].ID == vd.ID {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "vertex %d: duplicate id", vd.ID)
		}
		v, err := g.AddVertexWithID(vd.ID)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", vd.ID, err)
		}
		v.SetName(vd.Name)
		if vd.Location != nil {
			v.SetLocation(vd.Location.vec())
		}
		if vd.Locked {
			graph.SetValue(v.Metadata(), graph.LockVertexLocation, true)
		}
		if vd.Polar != nil {
			graph.SetValue(v.Metadata(), graph.PolarLayoutCoordinates, graph.SinglePolarCoordinates{R: vd.Polar.R, Angle: vd.Polar.Angle})
		}
		if err := setMeta(v.Metadata(), vd.Meta); err != nil {
			return nil, fmt.Errorf("vertex %d meta: %w", vd.ID, err)
		}
	}

	if doc.LayoutSubset != nil {
		for _, id := range doc.LayoutSubset {
			if _, ok := g.Vertex(id); !ok {
				return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "layout subset: unknown vertex %d", id)
			}
		}
		graph.SetValue(g.Metadata(), graph.LayOutTheseVerticesOnly, slices.Clone(doc.LayoutSubset))
	}

	// Explicit edge IDs first, in order; numbered edges after.
	edges := slices.Clone(doc.Edges)
	slices.SortStableFunc(edges, func(a, b edgeDoc) int {
		switch {
		case a.ID == 0 && b.ID == 0:
			return 0
		case a.ID == 0:
			return 1
		case b.ID == 0:
			return -1
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for _, ed := range edges {
		if err := addEdge(g, ed); err != nil {
			if ed.ID != 0 {
				return nil, fmt.Errorf("edge %d (%d->%d): %w", ed.ID, ed.From, ed.To, err)
			}
			return nil, fmt.Errorf("edge %d->%d: %w", ed.From, ed.To, err)
		}
	}
	return g, nil
}

func addEdge(g *graph.Graph, ed edgeDoc) error {
	v1, ok := g.Vertex(ed.From)
	if !ok {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "unknown vertex %d", ed.From)
	}
	v2, ok := g.Vertex(ed.To)
	if !ok {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "unknown vertex %d", ed.To)
	}
	directed := g.Directedness() == graph.Directed
	if ed.Directed != nil {
		directed = *ed.Directed
	}

	var (
		e   *graph.Edge
		err error
	)
	switch {
	case ed.ID < 0:
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "id must be positive, got %d", ed.ID)
	case ed.ID == 0:
		e, err = g.AddEdge(v1, v2, directed)
	default:
		e, err = g.AddEdgeWithID(ed.ID, v1, v2, directed)
	}
	if err != nil {
		return err
	}
	if len(ed.Curve) > 0 {
		pts := make([]r2.Vec, len(ed.Curve))
		for i, p := range ed.Curve {
			pts[i] = p.vec()
		}
		graph.SetValue(e.Metadata(), graph.EdgeCurvePoints, pts)
	}
	return setMeta(e.Metadata(), ed.Meta)
}

func setMeta(m *graph.Metadata, values map[string]any) error {
	for _, k := range sortedKeys(values) {
		if err := m.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
