package jobstore

import "golang.org/x/xerrors"

var (
	// ErrNotFound is returned when looking up a job that is not in the store.
	ErrNotFound = xerrors.New("not found")

	// ErrUnknownQueryType is returned when Search is called with an unknown query type.
	ErrUnknownQueryType = xerrors.New("unknown query type")
)
