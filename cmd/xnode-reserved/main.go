package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"xnode-reserved/pkg/api"
	"xnode-reserved/pkg/audit"
	"xnode-reserved/pkg/config"
	"xnode-reserved/pkg/ledger"
	"xnode-reserved/pkg/session"
	"xnode-reserved/pkg/wallet"
)

func main() {
	storeType := flag.String("store", "file", "reservation store backend: file|consul (requires build tag consul)")
	consulAddr := flag.String("consul-addr", "127.0.0.1:8500", "consul address (when store=consul)")
	adminToken := flag.String("admin-token", "", "token exchanged for admin JWTs (empty disables the admin surface)")
	tlsCert := flag.String("tls-cert", "", "TLS cert path (enables HTTPS if set with --tls-key)")
	tlsKey := flag.String("tls-key", "", "TLS key path (enables HTTPS if set with --tls-cert)")
	flag.Parse()

	cfg := config.Load()

	for _, dir := range []string{cfg.DataDir, cfg.ReservationsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("could not create data dir %s: %v", dir, err)
		}
	}

	w := wallet.Signer(cfg.DataDir)
	log.Printf("operator address: %s", w.Address())

	rec := audit.Open(cfg.AuditDBPath)
	defer rec.Close()

	broker := session.NewBroker(w)
	reclaimer := session.NewReclaimer(broker, rec)

	var store ledger.Store
	switch *storeType {
	case "consul":
		store = ledger.NewConsulStore(*consulAddr, cfg.ReservationsDir, cfg.Xnodes, cfg.ReservationDuration, reclaimer)
	case "file":
		store = ledger.NewFileStore(cfg.ReservationsDir, cfg.Xnodes, cfg.ReservationDuration, reclaimer)
	default:
		log.Fatalf("unsupported store type: %s", *storeType)
	}

	mux := http.NewServeMux()
	api.New(store, broker, w, rec, *adminToken).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.CORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("xnode-reserved listening on %s (%d xnodes configured)", cfg.Addr(), len(cfg.Xnodes))
	var err error
	if *tlsCert != "" && *tlsKey != "" {
		err = srv.ListenAndServeTLS(*tlsCert, *tlsKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}
