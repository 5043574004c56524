package main

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/metrics"
	"github.com/blkchain/ingress/relay"
	"github.com/blkchain/ingress/synchronizer"
	"github.com/blkchain/ingress/txpool"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
)

const defaultRelayInterval = time.Second

type nodeConfig struct {
	Pool          txpool.Config
	RelayInterval time.Duration

	// Announce receives the locally submitted transactions drained on
	// each relay tick. Without it they are only counted.
	Announce func([]ingress.Uint256)

	// Metrics is optional.
	Metrics *metrics.Metrics

	Clock clock.Clock
}

// node owns the chain view, the pool and the handlers a network layer
// plugs into: inbound sync messages go to synchronizer.Received, relay
// reads txHashes to avoid echoing transactions to their origin.
type node struct {
	cfg nodeConfig

	shared       *chain.Shared
	pool         *txpool.Pool
	txHashes     *relay.TxHashes
	synchronizer *synchronizer.Synchronizer

	started sync.Once
	stopped sync.Once
	wg      sync.WaitGroup
	quit    chan struct{}
}

func newNode(store *chain.Store, cfg nodeConfig) (*node, error) {
	if cfg.RelayInterval <= 0 {
		cfg.RelayInterval = defaultRelayInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	shared, err := chain.NewShared(store)
	if err != nil {
		return nil, err
	}
	cfg.Pool.Cells = store

	return &node{
		cfg:      cfg,
		shared:   shared,
		pool:     txpool.New(cfg.Pool),
		txHashes: relay.NewTxHashes(),
		synchronizer: synchronizer.New(synchronizer.Config{
			Snapshot: synchronizer.SharedSnapshots(shared),
			Metrics:  cfg.Metrics,
		}),
		quit: make(chan struct{}),
	}, nil
}

func (n *node) start() {
	n.started.Do(func() {
		n.pool.Start()
		n.wg.Add(1)
		go n.relayLoop()
	})
}

func (n *node) stop() {
	n.stopped.Do(func() {
		close(n.quit)
		n.wg.Wait()
		n.pool.Stop()
		n.shared.Close()
	})
}

// importBlocks connects the blocks serialized back to back in r and
// returns how many were read.
func (n *node) importBlocks(ctx context.Context, r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	var count int
	for {
		var b ingress.Block
		err := ingress.BinRead(&b, br)
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, errors.Wrapf(err, "reading block %d", count)
		}
		if err := n.connectBlock(ctx, &b); err != nil {
			return count, err
		}
		count++
	}
}

// connectBlock stores b, clears its transactions from the pool and
// marks its proposals. Blocks already valid are skipped.
func (n *node) connectBlock(ctx context.Context, b *ingress.Block) error {
	hash := b.Hash()
	status, err := n.shared.Store().BlockStatus(hash)
	if err != nil {
		return err
	}
	if status.Contains(chain.BlockStatusBlockValid) {
		log.Debugf("Block %d %v already connected", b.Number(), hash)
		return nil
	}

	if err := n.shared.InsertBlock(b, chain.BlockStatusBlockStored); err != nil {
		return err
	}

	views := make([]*ingress.TransactionView, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		views = append(views, ingress.NewTransactionView(tx))
	}
	removed, err := n.pool.RemoveCommitted(ctx, views)
	if err != nil {
		return errors.Wrapf(err, "removing txs of block %v", hash)
	}
	proposed, err := n.pool.Propose(ctx, b.Proposals)
	if err != nil {
		return errors.Wrapf(err, "proposing txs of block %v", hash)
	}

	if err := n.shared.SetBlockStatus(hash, chain.BlockStatusBlockValid); err != nil {
		return err
	}
	n.cfg.Metrics.BlockConnected()
	log.Infof("Connected block %d %v: %d txs, %d removed from pool, %d proposed",
		b.Number(), hash, len(b.Transactions), removed, proposed)
	return nil
}

func (n *node) relayLoop() {
	defer n.wg.Done()

	for {
		select {
		case <-n.cfg.Clock.TickAfter(n.cfg.RelayInterval):
			n.relayLocalTxs()
		case <-n.quit:
			return
		}
	}
}

// relayLocalTxs hands the locally submitted transactions recorded since
// the last call to Announce and returns how many there were.
func (n *node) relayLocalTxs() int {
	hashes := n.txHashes.Drain(relay.SelfOrigin())
	if len(hashes) == 0 {
		return 0
	}
	log.Debugf("Announcing %d local txs", len(hashes))
	if n.cfg.Announce != nil {
		n.cfg.Announce(hashes)
	}
	n.cfg.Metrics.TxsAnnounced(len(hashes))
	return len(hashes)
}
