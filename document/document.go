// Package document holds the read-only polyline digest consumed by the
// plot orchestrator. SVG ingestion and path flattening live outside this
// module; a DocumentDigest is assumed already expressed in inches, in
// device space, by the time it reaches this package.
package document

// Point is a single vertex, in inches, in device space.
type Point struct {
	X, Y float64
}

// Polyline is an ordered sequence of points. A valid Polyline has at
// least two points; callers must not rely on Polyline values with fewer.
type Polyline []Point

// Path is one polyline plus the metadata the orchestrator needs to
// track progress and compose checkpoints.
type Path struct {
	Line       Polyline
	LayerIndex int
	Ordinal    int
}

// Layer is a named, ordered group of paths. Name may encode pause,
// layer-number, and override escapes; see package plot's ParseLayerName.
type Layer struct {
	Name  string
	Paths []Path
}

// DocumentDigest is the immutable input to one plot invocation.
type DocumentDigest struct {
	Layers []Layer
	Width  float64 // inches
	Height float64 // inches

	// Name identifies the source document for logs and checkpoints only;
	// it has no effect on planning or execution.
	Name string
}
