//go:build !consul

package ledger

import "log"

// NewConsulStore falls back to the file store when the consul build tag is
// not enabled.
func NewConsulStore(addr, dir string, xnodes []string, duration int64, reclaimer Reclaimer) Store {
	log.Printf("consul store requested (addr=%s) but consul build tag not enabled; using file store", addr)
	return NewFileStore(dir, xnodes, duration, reclaimer)
}
