// Package xnode defines the domain types shared across the reservation
// service: reservable nodes, their reservations, and the configuration
// payloads understood by the remote xnode manager.
package xnode

import "strings"

// Reservation is a time-boxed, single-owner claim on an xnode. Secret is the
// opaque token minted at reserve time; a caller must present it on every
// ownership-gated request. ReservedUntil is seconds since the unix epoch.
type Reservation struct {
	Secret        string `json:"secret"`
	ReservedUntil int64  `json:"reserved_until"`
}

// Xnode pairs a node identifier with its current reservation, if any. It is
// computed on demand from the ledger and never cached across requests.
type Xnode struct {
	ID          string       `json:"id"`
	Reservation *Reservation `json:"reservation"`
}

// PathSafeID strips path separators from an xnode identifier so it can be
// used as a filesystem path component or a KV key segment.
func PathSafeID(id string) string {
	id = strings.ReplaceAll(id, "/", "")
	return strings.ReplaceAll(id, "\\", "")
}
