// Package pkg provides the core libraries for netgraph network analysis.
//
// # Overview
//
// Netgraph computes structural metrics of network graphs and positions their
// vertices for drawing. The pkg directory is organized into these areas:
//
//  1. [graph] - Graph model with typed metadata and transformations
//  2. [metrics] - Metric calculators (Brandes centrality, degree, clustering)
//  3. [sorter] and [layout] - Vertex ordering and coordinate assignment
//  4. [pipeline] - Orchestration (metrics → layout → render) with caching
//  5. [io], [render], [cache], [store] - Serialization, output and persistence
//
// # Architecture
//
// The typical data flow through netgraph:
//
//	JSON / GraphML file
//	         ↓
//	    [io] package (decode into a graph)
//	         ↓
//	    [pipeline] Runner.Run (calculators from [metrics])
//	         ↓
//	    Report.Apply (metric columns become vertex metadata)
//	         ↓
//	    [layout] package (positions, optionally sorted by a metric)
//	         ↓
//	    [render/nodelink] (DOT → SVG, PNG, PDF)
//
// # Quick Start
//
// Compute centralities and lay the graph out by betweenness:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/netgraph/pkg/io"
//	    "github.com/matzehuels/netgraph/pkg/pipeline"
//	)
//
//	g, _ := io.ImportGraphML("network.graphml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	report, _ := runner.Run(ctx, g, pipeline.Options{Calculators: []string{"brandes"}})
//	_ = report.Apply(g)
//	_, _ = runner.Layout(ctx, g, pipeline.LayoutOptions{Type: "polar", SortBy: "BetweennessCentrality"})
//
// # Main Packages
//
// ## Graph Model
//
// [graph] - Vertices and edges in an insertion-ordered arena. Graphs are
// directed, undirected or mixed, may forbid duplicate edges and self-loops,
// and carry typed metadata on the graph, every vertex and every edge.
//
// [graph/transform] - Copies that merge duplicate edges, change edge
// direction or keep a vertex subset.
//
// ## Analysis
//
// [metrics] - Calculators behind one interface, each cancellable and
// reporting progress. Brandes betweenness and closeness, degree, clustering
// coefficient, duplicate edges and overall graph statistics.
//
// [sorter] - Orders vertices by ID, name or a metadata value.
//
// [layout] - Polar, absolute polar, circle, grid, spiral, random and
// force-directed layouts plus rectangle-to-rectangle transforms.
//
// ## Infrastructure
//
// [pipeline] - Runs calculators with progress, cancellation and failure
// isolation; also the cached layout and render stages shared by CLI and
// server.
//
// [cache] - Result cache with file, Redis and null backends.
//
// [store] - Durable metric reports in files or MongoDB.
//
// [observability] - Hooks for pipeline, layout, cache and HTTP events.
//
// [errors] - Structured errors with machine-readable codes.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/metrics/...         # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// Tests needing MongoDB read NETGRAPH_TEST_MONGO_URI and are skipped
// without it.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/graph
// [graph/transform]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/graph/transform
// [metrics]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/metrics
// [sorter]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/sorter
// [layout]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/layout
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/netgraph/pkg/errors
package pkg
