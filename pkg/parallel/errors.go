package parallel

import "errors"

var (
	// ErrNodeNotFound is returned when a node id is outside the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidEdge is returned when an edge endpoint is outside the graph.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrNoPath is returned when the target cannot be reached.
	ErrNoPath = errors.New("no path")
)

// ErrInvalidOptions is returned for algorithm options outside their domain.
var ErrInvalidOptions = errors.New("invalid options")
