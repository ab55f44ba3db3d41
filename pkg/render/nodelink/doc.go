// Package nodelink renders laid-out graphs as node-link diagrams.
//
// # Overview
//
// Positions come from package layout; Graphviz only draws. [ToDOT] pins
// every node with pos="x,y!" and [RenderSVG] runs the neato engine, which
// honors pinned positions instead of computing its own.
//
//	dot, err := nodelink.ToDOT(g, nodelink.Options{ShowLabels: true, SizeBy: "betweenness"})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG with render.ToPDF or render.ToPNG.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
