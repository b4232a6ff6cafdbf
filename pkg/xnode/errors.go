package xnode

import "errors"

// Domain errors shared by the ledger backends and the HTTP surface.
var (
	ErrUnknownNode       = errors.New("invalid xnode id")
	ErrAlreadyReserved   = errors.New("xnode is already reserved")
	ErrNotReserved       = errors.New("xnode is not reserved")
	ErrOwnershipMismatch = errors.New("reservation secret does not match")
)
