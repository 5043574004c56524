package chain

import (
	"sync/atomic"

	"github.com/blkchain/ingress"
	"github.com/syndtr/goleveldb/leveldb"
)

// Snapshot is a consistent, read-only view of the store. It is
// reference counted: every holder calls Release once, and the
// underlying leveldb snapshot is freed with the last reference.
type Snapshot struct {
	snap *leveldb.Snapshot
	refs atomic.Int32
}

func newSnapshot(snap *leveldb.Snapshot) *Snapshot {
	s := &Snapshot{snap: snap}
	s.refs.Store(1)
	return s
}

// tryAcquire adds a reference unless the snapshot is already released.
func (s *Snapshot) tryAcquire() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *Snapshot) Release() {
	if s.refs.Add(-1) == 0 {
		s.snap.Release()
	}
}

// BlockStatus returns BlockStatusUnknown for blocks never seen as well
// as for read errors, which are logged.
func (s *Snapshot) BlockStatus(hash ingress.Uint256) BlockStatus {
	status, err := getBlockStatus(s.snap, hash)
	if err != nil {
		log.Errorf("Snapshot: %v", err)
	}
	return status
}

func (s *Snapshot) ContainsBlockStatus(hash ingress.Uint256, status BlockStatus) bool {
	return s.BlockStatus(hash).Contains(status)
}

// Block returns the stored block body, if present.
func (s *Snapshot) Block(hash ingress.Uint256) (*ingress.Block, bool) {
	b, err := getBlock(s.snap, hash)
	if err == ErrNotFound {
		return nil, false
	}
	if err != nil {
		log.Errorf("Snapshot: %v", err)
		return nil, false
	}
	return b, true
}

func (s *Snapshot) LiveCell(op ingress.OutPoint) (*ingress.CellOutput, bool, error) {
	return getLiveCell(s.snap, op)
}
