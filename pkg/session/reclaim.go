package session

import (
	"context"
	"log"
	"net/http"

	"xnode-reserved/pkg/xnode"
)

// AuditSink records reservation lifecycle events; nil-safe on the caller side.
type AuditSink interface {
	Record(xnodeID, actor, event string)
}

// Reclaimer tears down the remote workload left behind by an expired or
// released reservation. All failures are logged and swallowed; reclamation is
// advisory cleanup, not a transactional guarantee.
type Reclaimer struct {
	broker *Broker
	audit  AuditSink
}

func NewReclaimer(b *Broker, audit AuditSink) *Reclaimer {
	return &Reclaimer{broker: b, audit: audit}
}

// Reclaim removes the container associated with the reservation's secret. A
// node may retain stale remote state if this fails; a later lazy read retries.
func (r *Reclaimer) Reclaim(xnodeID, secret string) {
	req, err := PostJSON(xnodeID, "config/change", []xnode.ConfigAction{{
		Remove: &xnode.RemoveAction{Container: xnode.ContainerID(secret), Backup: false},
	}})
	if err != nil {
		log.Printf("could not build reclaim request for %s: %v", xnodeID, err)
		return
	}

	err = r.broker.WithSession(context.Background(), xnodeID, func(client *http.Client) error {
		resp, err := Do(context.Background(), client, req)
		if err != nil {
			return err
		}
		if resp.Status < 200 || resp.Status > 299 {
			log.Printf("reclaim of %s answered status %d: %s", xnodeID, resp.Status, resp.Body)
		}
		return nil
	})
	if err != nil {
		log.Printf("could not clean up xnode %s: %v", xnodeID, err)
		if r.audit != nil {
			r.audit.Record(xnodeID, "ledger", "reclaim_failed")
		}
		return
	}
	if r.audit != nil {
		r.audit.Record(xnodeID, "ledger", "reclaimed")
	}
}
