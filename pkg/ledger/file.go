package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"xnode-reserved/pkg/xnode"
)

// FileStore keeps one small JSON record per xnode in dir; absence of the file
// means unreserved.
type FileStore struct {
	dir       string
	xnodes    []string
	duration  int64 // seconds
	reclaimer Reclaimer

	// mu serializes the check-then-write in Reserve and Release. Reads stay
	// lock-free; an expired record deleted twice is harmless.
	mu sync.Mutex

	now func() int64
}

func NewFileStore(dir string, xnodes []string, duration int64, reclaimer Reclaimer) *FileStore {
	return &FileStore{
		dir:       dir,
		xnodes:    xnodes,
		duration:  duration,
		reclaimer: reclaimer,
		now:       func() int64 { return time.Now().Unix() },
	}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, xnode.PathSafeID(id))
}

func (s *FileStore) known(id string) bool {
	for _, x := range s.xnodes {
		if x == id {
			return true
		}
	}
	return false
}

func (s *FileStore) Get(_ context.Context, id string) (xnode.Xnode, error) {
	if !s.known(id) {
		return xnode.Xnode{}, xnode.ErrUnknownNode
	}
	return s.read(id), nil
}

// read loads the record for id, expiring it lazily. It never fails: parse and
// I/O problems are logged and treated as "no reservation".
func (s *FileStore) read(id string) xnode.Xnode {
	path := s.path(id)
	out := xnode.Xnode{ID: id}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("could not read reservation file %s: %v", path, err)
		}
		return out
	}

	var res xnode.Reservation
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("reservation file %s could not be parsed: %v. contents: %s", path, err, raw)
		return out
	}

	if res.ReservedUntil > s.now() {
		out.Reservation = &res
		return out
	}

	// Expired: drop the record and clean up the remote side without blocking
	// the read.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("could not remove reservation file %s: %v", path, err)
	}
	if s.reclaimer != nil {
		go s.reclaimer.Reclaim(id, res.Secret)
	}
	return out
}

func (s *FileStore) List(ctx context.Context) ([]xnode.Xnode, error) {
	out := make([]xnode.Xnode, len(s.xnodes))
	var wg sync.WaitGroup
	for i, id := range s.xnodes {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			out[i] = s.read(id)
		}(i, id)
	}
	wg.Wait()
	return out, nil
}

func (s *FileStore) Reserve(ctx context.Context, id string) (xnode.Reservation, error) {
	if !s.known(id) {
		return xnode.Reservation{}, xnode.ErrUnknownNode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.read(id); current.Reservation != nil {
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
	if err := os.WriteFile(s.path(id), raw, 0o600); err != nil {
		return xnode.Reservation{}, fmt.Errorf("write reservation file for %s: %w", id, err)
	}
	return res, nil
}

func (s *FileStore) Release(ctx context.Context, id string) error {
	if !s.known(id) {
		return xnode.ErrUnknownNode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.read(id)
	if current.Reservation == nil {
		return xnode.ErrNotReserved
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove reservation file for %s: %w", id, err)
	}
	if s.reclaimer != nil {
		go s.reclaimer.Reclaim(id, current.Reservation.Secret)
	}
	return nil
}
