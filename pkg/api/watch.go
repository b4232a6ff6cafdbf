package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"xnode-reserved/pkg/ledger"
)

const watchInterval = 5 * time.Second

// Watcher streams the current xnode list to websocket subscribers so a UI can
// show reservations going live and expiring without polling. Each push is a
// fresh ledger read, so lazy expiry runs on the stream too.
type Watcher struct {
	upgrader websocket.Upgrader
	store    ledger.Store
}

func NewWatcher(store ledger.Store) *Watcher {
	return &Watcher{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		store: store,
	}
}

func (wa *Watcher) Handle(w http.ResponseWriter, r *http.Request) {
	c, err := wa.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	log.Printf("watch subscriber connected: %s", r.RemoteAddr)
	go wa.pushLoop(c, r.RemoteAddr)
}

func (wa *Watcher) pushLoop(c *websocket.Conn, remote string) {
	defer func() {
		c.Close()
		log.Printf("watch subscriber disconnected: %s", remote)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		nodes, err := wa.store.List(context.Background())
		if err != nil {
			log.Printf("watch list failed: %v", err)
			return
		}
		if err := c.WriteJSON(summarize(nodes)); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
