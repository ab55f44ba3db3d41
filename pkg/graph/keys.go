package graph

import "gonum.org/v1/gonum/spatial/r2"

// SinglePolarCoordinates is a vertex position in polar form. R is either
// normalized to [0, 1] or in drawing units, depending on the layout that
// reads it. Angle is in degrees, 0 pointing along +X and 90 along +Y.
type SinglePolarCoordinates struct {
	R     float64 `json:"r"`
	Angle float64 `json:"angle"`
}

// Reserved metadata keys. These are the only tokens that reach the reserved
// namespace; they are read by the layout and metric packages.
var (
	// LockVertexLocation (vertex) marks a vertex whose location a layout pass
	// must not change. Locked vertices still act as neighbors.
	LockVertexLocation = reservedKey[bool]("LockVertexLocation")

	// PolarLayoutCoordinates (vertex) holds the explicit position read by the
	// polar layouts.
	PolarLayoutCoordinates = reservedKey[SinglePolarCoordinates]("PolarLayoutCoordinates")

	// LayOutTheseVerticesOnly (graph) restricts a layout pass to a vertex
	// subset. Vertices outside it are neither moved nor consulted.
	LayOutTheseVerticesOnly = reservedKey[[]VertexID]("LayOutTheseVerticesOnly")

	// EdgeCurvePoints (edge) holds stored edge geometry. Rectangle transforms
	// remap these points together with vertex locations.
	EdgeCurvePoints = reservedKey[[]r2.Vec]("EdgeCurvePoints")

	// LayoutBounds (graph) records the rectangle the last layout pass used.
	LayoutBounds = reservedKey[r2.Box]("LayoutBounds")
)
