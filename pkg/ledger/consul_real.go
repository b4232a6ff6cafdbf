//go:build consul

package ledger

import (
	"xnode-reserved/pkg/consul"
)

// NewConsulStore creates a Consul-backed store (requires build tag consul).
func NewConsulStore(addr, _ string, xnodes []string, duration int64, reclaimer Reclaimer) Store {
	return consul.NewStore(addr, xnodes, duration, reclaimer)
}
