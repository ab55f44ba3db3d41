// Package layout assigns 2D locations to the vertices of a graph.
//
// # Overview
//
// A [Layout] positions vertices inside a bounding rectangle ([r2.Box],
// screen coordinates with Y growing downwards). Every layout shares the same
// rules, implemented once in this package:
//
//   - A vertex whose [graph.LockVertexLocation] is true is never moved. It
//     still participates as a neighbor (force-directed layouts feel it).
//   - When the graph carries [graph.LayOutTheseVerticesOnly], only the listed
//     vertices take part. Vertices outside the subset are neither moved nor
//     consulted.
//   - An empty graph is a no-op.
//   - The rectangle used is recorded in [graph.LayoutBounds].
//
// # Polar Layouts
//
// [Polar] and [PolarAbsolute] read [graph.PolarLayoutCoordinates] from each
// vertex. Angles are in degrees, 0 pointing along +X and 90 along +Y (up on
// screen), and wrap modulo 360. [Polar] treats R as normalized: it is
// clamped to [0, 1] and scaled to half the smaller rectangle dimension.
// [PolarAbsolute] uses R in drawing units. Both center the pole in the
// rectangle; vertices without coordinates are placed at the pole.
//
// # Other Layouts
//
// [Circle], [Grid] and [Spiral] place vertices in the order chosen by a
// [sorter.Sorter]. [Random] scatters them with a seeded generator and
// [FruchtermanReingold] runs an iterative force-directed simulation that
// checks for cancellation every iteration.
//
// # Transforms
//
// [RectangleTransform] builds the [Affine] map between two rectangles, and
// [TransformLayout] applies it to every vertex location and every
// [graph.EdgeCurvePoints] list, rescaling a finished layout to a new
// viewport without recomputing it. [Bounds] returns the bounding rectangle
// of the current locations.
//
// [r2.Box]: gonum.org/v1/gonum/spatial/r2
// [sorter.Sorter]: github.com/matzehuels/netgraph/pkg/sorter
package layout
