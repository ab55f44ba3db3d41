// Package render turns laid-out graphs into files.
//
// # Formats
//
// The [nodelink] subpackage writes Graphviz DOT with every vertex pinned at
// its computed location and renders it to SVG in process. [ToPDF] and
// [ToPNG] convert any SVG using the external rsvg-convert tool (from
// librsvg):
//
//	dot, err := nodelink.ToDOT(g, nodelink.Options{ShowLabels: true})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/netgraph/pkg/render/nodelink
package render
