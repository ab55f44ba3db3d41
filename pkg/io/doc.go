// Package io reads and writes graphs in JSON and GraphML.
//
// # JSON Format
//
// The JSON format mirrors the graph model: directedness and restrictions on
// the top level, then vertices and edges, each carrying its ID and an
// optional free-form meta object.
//
//	{
//	  "directedness": "undirected",
//	  "restrictions": ["no-self-loops"],
//	  "vertices": [
//	    {"id": 1, "name": "A"},
//	    {"id": 2, "name": "B", "meta": {"weight": 3}}
//	  ],
//	  "edges": [
//	    {"id": 1, "from": 1, "to": 2}
//	  ]
//	}
//
// Vertex IDs are required and must be unique; they are preserved on import,
// so results keyed by vertex ID survive a round trip. Edge IDs are optional:
// edges without one are numbered after the largest explicit ID.
//
// Layout state travels in dedicated fields rather than in meta: "location",
// "locked" and "polar" on vertices, "curve" on edges, "bounds" and
// "layout_subset" on the graph. Meta keys in the reserved namespace are
// rejected on import and never written on export.
//
// # GraphML
//
// [ReadGraphML] accepts the common GraphML subset produced by graph tools:
// one <graph> element, <node> and <edge> children and <data> values declared
// through <key> elements. Attribute types boolean, int, long, float, double
// and string are decoded; everything else is kept as a string. Node IDs are
// arbitrary strings; they become vertex names and vertices are numbered in
// document order.
//
// # Fingerprints
//
// [MarshalGraph] produces compact, deterministic JSON. Its hash identifies
// a graph's content independently of the instance, which is what the
// pipeline uses for cache keys.
package io
