// Package ledger persists and queries the reservation state of each xnode.
// Reads are lazy-expiring: the first read that finds a reservation past its
// deadline deletes the backing record and triggers remote reclamation.
package ledger

import (
	"context"

	"xnode-reserved/pkg/xnode"
)

// Reclaimer is invoked, best-effort and asynchronously, when an expired or
// released reservation is removed from the ledger.
type Reclaimer interface {
	Reclaim(xnodeID, secret string)
}

// Store defines the reservation persistence layer. The file backend is the
// default; a Consul KV backend is available behind the consul build tag.
type Store interface {
	// Get returns the xnode with its current reservation, expiring it lazily.
	// Unknown ids fail with xnode.ErrUnknownNode; storage and parse problems
	// are logged and reported as "no reservation".
	Get(ctx context.Context, id string) (xnode.Xnode, error)
	// List maps Get over the configured xnode set, in configuration order.
	List(ctx context.Context) ([]xnode.Xnode, error)
	// Reserve claims the xnode for a fresh secret until now+duration. Fails
	// with xnode.ErrAlreadyReserved while a live reservation exists.
	Reserve(ctx context.Context, id string) (xnode.Reservation, error)
	// Release drops the reservation explicitly and triggers reclamation.
	// Fails with xnode.ErrNotReserved if there is none.
	Release(ctx context.Context, id string) error
}
