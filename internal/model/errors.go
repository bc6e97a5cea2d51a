package model

import "errors"

var (
	// ErrConfiguration reports a network that is not assembled for the
	// requested call: a layer added after the output layer, a pass through a
	// network without one, or unusable training options.
	ErrConfiguration = errors.New("configuration error")

	// ErrShapeMismatch reports inputs or targets whose widths or row counts
	// do not fit the network.
	ErrShapeMismatch = errors.New("shape mismatch")
)
