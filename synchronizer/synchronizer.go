package synchronizer

import (
	"errors"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/consensus"
	"github.com/blkchain/ingress/metrics"
	"github.com/blkchain/ingress/relay"
)

// ErrTooManyBlockHashes is returned for a GetBlocks request longer than
// the configured maximum. It is a protocol violation by the peer.
var ErrTooManyBlockHashes = errors.New("GetBlocks block_hashes size is greater than MAX_HEADERS_LEN")

// ChainSnapshot is the read-only chain view block serving needs.
type ChainSnapshot interface {
	ContainsBlockStatus(hash ingress.Uint256, status chain.BlockStatus) bool
	Block(hash ingress.Uint256) (*ingress.Block, bool)
	Release()
}

// ProtocolContext is the network layer as seen by a protocol handler.
type ProtocolContext interface {
	// SendPaused reports whether the send buffer of the peer's session
	// is full.
	SendPaused(peer relay.PeerIndex) bool

	SendMessageTo(peer relay.PeerIndex, data []byte) error

	// Misbehave reports a protocol violation by peer.
	Misbehave(peer relay.PeerIndex, reason string)
}

type Config struct {
	// Snapshot returns the current chain snapshot. The caller releases
	// it.
	Snapshot func() ChainSnapshot

	MaxHeadersLen      int
	MaxBlocksInTransit int

	// Metrics is optional.
	Metrics *metrics.Metrics
}

type Synchronizer struct {
	cfg Config
}

func New(cfg Config) *Synchronizer {
	if cfg.MaxHeadersLen <= 0 {
		cfg.MaxHeadersLen = consensus.MaxHeadersLen
	}
	if cfg.MaxBlocksInTransit <= 0 {
		cfg.MaxBlocksInTransit = consensus.MaxBlocksInTransitPerPeer
	}
	return &Synchronizer{cfg: cfg}
}

// MaxBlocksInTransit is the most blocks served for one GetBlocks
// request.
func (s *Synchronizer) MaxBlocksInTransit() int {
	return s.cfg.MaxBlocksInTransit
}

// SharedSnapshots adapts a chain.Shared to Config.Snapshot.
func SharedSnapshots(shared *chain.Shared) func() ChainSnapshot {
	return func() ChainSnapshot {
		if snap := shared.Snapshot(); snap != nil {
			return snap
		}
		return nil
	}
}

// Received handles one inbound sync message from peer. Messages that
// do not decode and requests that break protocol limits are reported
// as misbehavior.
func (s *Synchronizer) Received(nc ProtocolContext, peer relay.PeerIndex, data []byte) {
	msg, err := DecodeMessage(data)
	if errors.Is(err, ErrUnhandledMessage) {
		log.Tracef("Ignoring %v from peer %v", err, peer)
		return
	}
	if err != nil {
		log.Warnf("Peer %v sent a malformed message: %v", peer, err)
		s.misbehave(nc, peer, err.Error())
		return
	}

	switch m := msg.(type) {
	case *GetBlocks:
		s.cfg.Metrics.GetBlocksRequest()
		err := NewGetBlocksProcess(m, s, peer, nc).Execute()
		if err != nil {
			s.misbehave(nc, peer, err.Error())
		}

	default:
		log.Debugf("Ignoring %v from peer %v", msg.MsgType(), peer)
	}
}

func (s *Synchronizer) misbehave(nc ProtocolContext, peer relay.PeerIndex, reason string) {
	s.cfg.Metrics.PeerMisbehaved()
	nc.Misbehave(peer, reason)
}
