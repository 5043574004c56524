package relay

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/blkchain/ingress"
)

// PeerIndex identifies a connected peer session.
type PeerIndex uint64

func (p PeerIndex) String() string {
	return fmt.Sprintf("peer(%d)", uint64(p))
}

// Origin is where a transaction came from: a peer, or this node
// itself. The zero value is not a valid origin.
type Origin struct {
	peer  PeerIndex
	local bool
	valid bool
}

// SelfOrigin is the origin of transactions submitted locally. It never
// equals any PeerOrigin.
func SelfOrigin() Origin {
	return Origin{local: true, valid: true}
}

func PeerOrigin(p PeerIndex) Origin {
	return Origin{peer: p, valid: true}
}

func (o Origin) IsSelf() bool {
	return o.local
}

// Peer returns the peer index and false for SelfOrigin.
func (o Origin) Peer() (PeerIndex, bool) {
	return o.peer, o.valid && !o.local
}

func (o Origin) String() string {
	switch {
	case o.local:
		return "self"
	case o.valid:
		return o.peer.String()
	default:
		return "invalid origin"
	}
}

const numShards = 16

type shard struct {
	sync.RWMutex
	hashes map[Origin]map[ingress.Uint256]struct{}
}

// TxHashes records which transactions each origin has given us, so
// they are not relayed back to where they came from. It is safe for
// concurrent use.
type TxHashes struct {
	seed   maphash.Seed
	shards [numShards]shard
}

func NewTxHashes() *TxHashes {
	t := &TxHashes{seed: maphash.MakeSeed()}
	for i := range t.shards {
		t.shards[i].hashes = make(map[Origin]map[ingress.Uint256]struct{})
	}
	return t
}

func (t *TxHashes) shardFor(o Origin) *shard {
	var h maphash.Hash
	h.SetSeed(t.seed)
	if o.local {
		h.WriteByte(1)
	} else {
		h.WriteByte(0)
		var b [8]byte
		for i := range b {
			b[i] = byte(o.peer >> (8 * i))
		}
		h.Write(b[:])
	}
	return &t.shards[h.Sum64()%numShards]
}

// Insert adds hash to the set of origin, creating the set if needed.
// It reports whether the hash was new.
func (t *TxHashes) Insert(o Origin, hash ingress.Uint256) bool {
	s := t.shardFor(o)
	s.Lock()
	defer s.Unlock()

	set, ok := s.hashes[o]
	if !ok {
		set = make(map[ingress.Uint256]struct{})
		s.hashes[o] = set
	}
	if _, ok := set[hash]; ok {
		return false
	}
	set[hash] = struct{}{}
	return true
}

func (t *TxHashes) Contains(o Origin, hash ingress.Uint256) bool {
	s := t.shardFor(o)
	s.RLock()
	defer s.RUnlock()

	_, ok := s.hashes[o][hash]
	return ok
}

// Len is the number of hashes recorded for origin.
func (t *TxHashes) Len(o Origin) int {
	s := t.shardFor(o)
	s.RLock()
	defer s.RUnlock()

	return len(s.hashes[o])
}

// Drain removes and returns every hash recorded for origin. Relay
// calls it when it announces the origin's transactions.
func (t *TxHashes) Drain(o Origin) []ingress.Uint256 {
	s := t.shardFor(o)
	s.Lock()
	set := s.hashes[o]
	delete(s.hashes, o)
	s.Unlock()

	result := make([]ingress.Uint256, 0, len(set))
	for h := range set {
		result = append(result, h)
	}
	return result
}
