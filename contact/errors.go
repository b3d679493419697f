package contact

import (
	"errors"

	"github.com/notargets/gocontact/geometry"
)

var (
	ErrNotComputed       = errors.New("not computed yet")
	ErrFacetOutOfRange   = errors.New("facet index out of range")
	ErrDimensionMismatch = geometry.ErrDimensionMismatch
)
