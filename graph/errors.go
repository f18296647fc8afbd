package graph

import "github.com/teranos/arbor/errors"

// Mutations rejected by the store. The store is left unchanged in every case.
var (
	ErrInvalidID       = errors.Mark(errors.New("element id must not be empty"), errors.ErrInvalidRequest)
	ErrNodeExists      = errors.Mark(errors.New("node already exists"), errors.ErrConflict)
	ErrEdgeExists      = errors.Mark(errors.New("edge already exists"), errors.ErrConflict)
	ErrMissingEndpoint = errors.Mark(errors.New("edge endpoint does not exist"), errors.ErrInvalidRequest)
	ErrNotFound        = errors.Mark(errors.New("element not found"), errors.ErrNotFound)
)
