package workflow

import "golang.org/x/xerrors"

var (
	// ErrNetwork is returned when a call to the execution network fails at
	// the transport level.
	ErrNetwork = xerrors.New("network error")

	// ErrConsistency is returned when the network reports back a different
	// object than the one that was submitted.
	ErrConsistency = xerrors.New("consistency error")

	// ErrValidation is returned for malformed hashes, descriptors or chunk
	// state files.
	ErrValidation = xerrors.New("validation error")

	// ErrTransfer is returned when an output file could not be downloaded.
	ErrTransfer = xerrors.New("transfer error")
)
