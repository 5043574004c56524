package synchronizer

import (
	"fmt"

	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/relay"
)

// GetBlocksProcess serves one GetBlocks request.
type GetBlocksProcess struct {
	message      *GetBlocks
	synchronizer *Synchronizer
	nc           ProtocolContext
	peer         relay.PeerIndex
}

func NewGetBlocksProcess(message *GetBlocks, synchronizer *Synchronizer,
	peer relay.PeerIndex, nc ProtocolContext) *GetBlocksProcess {

	return &GetBlocksProcess{
		message:      message,
		synchronizer: synchronizer,
		nc:           nc,
		peer:         peer,
	}
}

// Execute sends the requested blocks that are fully verified, in
// request order, and at most MaxBlocksInTransit of them. It stops early
// when the peer's send buffer is full, when a send fails, or when a
// block body is missing. Only an oversized request is an error.
func (p *GetBlocksProcess) Execute() error {
	cfg := &p.synchronizer.cfg
	blockHashes := p.message.BlockHashes

	// MaxHeadersLen is the limit, MaxBlocksInTransit may grow later.
	if len(blockHashes) > cfg.MaxHeadersLen {
		log.Warnf("Peer %v sends us an invalid message, GetBlocks "+
			"block_hashes size (%d) is greater than MAX_HEADERS_LEN (%d)",
			p.peer, len(blockHashes), cfg.MaxHeadersLen)
		return fmt.Errorf("%w: %d > %d", ErrTooManyBlockHashes,
			len(blockHashes), cfg.MaxHeadersLen)
	}

	snapshot := cfg.Snapshot()
	if snapshot == nil {
		log.Errorf("No chain snapshot to serve GetBlocks from peer %v", p.peer)
		return nil
	}
	defer snapshot.Release()

	n := len(blockHashes)
	if n > cfg.MaxBlocksInTransit {
		n = cfg.MaxBlocksInTransit
	}
	for _, blockHash := range blockHashes[:n] {
		log.Debugf("get_blocks %v from peer %v", blockHash, p.peer)

		if !snapshot.ContainsBlockStatus(blockHash, chain.BlockStatusBlockValid) {
			log.Debugf("Ignoring get_block %v request from peer %v "+
				"for unverified", blockHash, p.peer)
			continue
		}

		if p.nc.SendPaused(p.peer) {
			log.Debugf("Session send buffer is full, stop send blocks "+
				"to peer %v", p.peer)
			break
		}

		block, ok := snapshot.Block(blockHash)
		if !ok {
			// Hashes are sorted from highest to lowest, if this one
			// is missing the rest are too.
			log.Debugf("GetBlocks stopping since %v is not found", blockHash)
			break
		}

		log.Debugf("Respond block %d %v to peer %v", block.Number(),
			blockHash, p.peer)
		data, err := EncodeMessage(&SendBlock{Block: block})
		if err != nil {
			log.Errorf("Unable to encode block %v: %v", blockHash, err)
			break
		}
		if err := p.nc.SendMessageTo(p.peer, data); err != nil {
			log.Debugf("Synchronizer send block error: %v", err)
			break
		}
		cfg.Metrics.BlockServed()
	}

	return nil
}
