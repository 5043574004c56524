package chain

import (
	"sync"
	"sync/atomic"

	"github.com/blkchain/ingress"
	"github.com/pkg/errors"
)

// Shared hands out snapshots of a Store. Writers go through Shared so
// the current snapshot is replaced after each write. Readers holding an
// older snapshot keep seeing it until they release it.
type Shared struct {
	store   *Store
	current atomic.Pointer[Snapshot]

	// mu serializes writers.
	mu sync.Mutex
}

func NewShared(store *Store) (*Shared, error) {
	s := &Shared{store: store}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Shared) Store() *Store {
	return s.store
}

// Snapshot returns the current snapshot with a reference the caller
// must release. It returns nil after Close.
func (s *Shared) Snapshot() *Snapshot {
	for {
		snap := s.current.Load()
		if snap == nil {
			return nil
		}
		if snap.tryAcquire() {
			return snap
		}
		// Swapped and released between Load and tryAcquire, retry
		// with the new one.
	}
}

// Refresh takes a new snapshot of the store and makes it current.
func (s *Shared) Refresh() error {
	snap, err := s.store.db.GetSnapshot()
	if err != nil {
		return errors.Wrap(err, "taking chain snapshot")
	}
	if old := s.current.Swap(newSnapshot(snap)); old != nil {
		old.Release()
	}
	return nil
}

func (s *Shared) InsertBlock(b *ingress.Block, status BlockStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.InsertBlock(b, status); err != nil {
		return err
	}
	return s.Refresh()
}

func (s *Shared) SetBlockStatus(hash ingress.Uint256, status BlockStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetBlockStatus(hash, status); err != nil {
		return err
	}
	log.Debugf("Block %v is now %v", hash, status)
	return s.Refresh()
}

// Close drops the current snapshot. Snapshots still held by readers
// stay valid until released.
func (s *Shared) Close() {
	if old := s.current.Swap(nil); old != nil {
		old.Release()
	}
}
