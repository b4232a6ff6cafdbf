//go:build consul

// Package consul is a Consul KV backed reservation store. Reserve uses
// check-and-set on the record's modify index, so concurrent reservers cannot
// both win even across processes.
package consul

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"

	"xnode-reserved/pkg/xnode"
)

const reservationPrefix = "xnode-reserved/reservations/"

// Reclaimer mirrors the ledger's reclamation hook without importing it.
type Reclaimer interface {
	Reclaim(xnodeID, secret string)
}

type Store struct {
	cli       *consulapi.Client
	xnodes    []string
	duration  int64
	reclaimer Reclaimer
	now       func() int64
}

func NewStore(addr string, xnodes []string, duration int64, reclaimer Reclaimer) *Store {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, _ := consulapi.NewClient(cfg) // ignore error for build; runtime will report
	return &Store{
		cli:       cli,
		xnodes:    xnodes,
		duration:  duration,
		reclaimer: reclaimer,
		now:       func() int64 { return time.Now().Unix() },
	}
}

func (s *Store) key(id string) string {
	return reservationPrefix + xnode.PathSafeID(id)
}

func (s *Store) known(id string) bool {
	for _, x := range s.xnodes {
		if x == id {
			return true
		}
	}
	return false
}

func (s *Store) Get(ctx context.Context, id string) (xnode.Xnode, error) {
	if !s.known(id) {
		return xnode.Xnode{}, xnode.ErrUnknownNode
	}
	x, _ := s.read(id)
	return x, nil
}

// read returns the xnode plus the KV modify index of its record (0 if absent),
// expiring stale records lazily like the file backend does.
func (s *Store) read(id string) (xnode.Xnode, uint64) {
	out := xnode.Xnode{ID: id}
	if s.cli == nil {
		log.Printf("consul client not configured; reporting %s unreserved", id)
		return out, 0
	}
	kv, _, err := s.cli.KV().Get(s.key(id), nil)
	if err != nil {
		log.Printf("could not read reservation key %s: %v", s.key(id), err)
		return out, 0
	}
	if kv == nil {
		return out, 0
	}

	var res xnode.Reservation
	if err := json.Unmarshal(kv.Value, &res); err != nil {
		log.Printf("reservation key %s could not be parsed: %v. contents: %s", s.key(id), err, kv.Value)
		return out, kv.ModifyIndex
	}
	if res.ReservedUntil > s.now() {
		out.Reservation = &res
		return out, kv.ModifyIndex
	}

	if _, err := s.cli.KV().Delete(s.key(id), nil); err != nil {
		log.Printf("could not delete reservation key %s: %v", s.key(id), err)
	}
	if s.reclaimer != nil {
		go s.reclaimer.Reclaim(id, res.Secret)
	}
	return out, 0
}

func (s *Store) List(ctx context.Context) ([]xnode.Xnode, error) {
	out := make([]xnode.Xnode, len(s.xnodes))
	var wg sync.WaitGroup
	for i, id := range s.xnodes {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			out[i], _ = s.read(id)
		}(i, id)
	}
	wg.Wait()
	return out, nil
}

func (s *Store) Reserve(ctx context.Context, id string) (xnode.Reservation, error) {
	if !s.known(id) {
		return xnode.Reservation{}, xnode.ErrUnknownNode
	}
	if s.cli == nil {
		return xnode.Reservation{}, fmt.Errorf("consul client not configured")
	}

	current, index := s.read(id)
	if current.Reservation != nil {
		return xnode.Reservation{}, xnode.ErrAlreadyReserved
	}

	res := xnode.Reservation{
		Secret:        uuid.NewString(),
		ReservedUntil: s.now() + s.duration,
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return xnode.Reservation{}, fmt.Errorf("marshal reservation for %s: %w", id, err)
	}
	ok, _, err := s.cli.KV().CAS(&consulapi.KVPair{Key: s.key(id), Value: raw, ModifyIndex: index}, nil)
	if err != nil {
		return xnode.Reservation{}, fmt.Errorf("write reservation key for %s: %w", id, err)
	}
	if !ok {
		// Someone raced us between read and CAS.
		return xnode.Reservation{}, xnode.ErrAlreadyReserved
	}
	return res, nil
}

func (s *Store) Release(ctx context.Context, id string) error {
	if !s.known(id) {
		return xnode.ErrUnknownNode
	}
	if s.cli == nil {
		return fmt.Errorf("consul client not configured")
	}

	current, _ := s.read(id)
	if current.Reservation == nil {
		return xnode.ErrNotReserved
	}
	if _, err := s.cli.KV().Delete(s.key(id), nil); err != nil {
		return fmt.Errorf("delete reservation key for %s: %w", id, err)
	}
	if s.reclaimer != nil {
		go s.reclaimer.Reclaim(id, current.Reservation.Secret)
	}
	return nil
}
