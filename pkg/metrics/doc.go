// Package metrics computes graph metrics: centralities, degrees, clustering
// coefficients and graph-wide summaries.
//
// # Calculators
//
// Every metric is produced by a [Calculator]. A calculator receives a graph
// that may contain duplicate edges and self-loops and returns a [Result]
// whose per-vertex columns are keyed by the full vertex-ID set: isolates get
// a well-defined zero, never an omission. Calculators that count paths
// declare [Calculator.RequiresMergedDuplicates]; the pipeline package merges
// duplicate edges once before running them.
//
// Shipped calculators:
//   - [BrandesCentrality]: betweenness and closeness centrality plus the
//     maximum and average geodesic distance
//   - [Degree]: in-degree, out-degree and total degree
//   - [ClusteringCoefficient]: local clustering on the undirected view
//   - [DuplicateEdges]: duplicate edge groups and counts
//   - [Overall]: vertex, edge and component counts, density and geodesics
//
// # Cancellation
//
// Calculators check ctx before every unit of work (each BFS source for
// Brandes) and return an error wrapping [ErrCancelled] when it is done.
// Cancellation is an outcome, not a failure: the pipeline reports it as a
// cancelled run and never records it as a CALCULATION_FAILED error.
//
// # Progress
//
// A calculator reports progress through [Progress.Step] with done/total
// counts of its own units of work, finishing with done == total.
// [Calculator.Steps] is the calculator's weight in pipeline-wide progress.
//
// # Centrality Tables
//
// [WriteCentralityTable] and [ParseCentralityTable] read and write the
// tab-separated table format of external graph engines
// ("Vertex ID\tCloseness Centrality\tBetweenness Centrality"), so results can
// be exchanged with other tools. Any deviation from the format is a
// calculation failure.
package metrics
