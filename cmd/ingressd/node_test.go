package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/chain"
	"github.com/blkchain/ingress/relay"
	"github.com/blkchain/ingress/txpool"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

func newTestNode(t *testing.T, cfg nodeConfig) *node {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	store := chain.NewStore(db)

	cfg.Pool.MinFeeRate = ingress.DefaultMinFeeRate
	n, err := newNode(store, cfg)
	require.NoError(t, err)
	n.start()
	t.Cleanup(func() {
		n.stop()
		store.Close()
	})
	return n
}

func testLock() ingress.Script {
	return ingress.Script{HashType: ingress.HashTypeType, Args: make([]byte, 20)}
}

func testCellbase(capacity ingress.Capacity) *ingress.Transaction {
	return &ingress.Transaction{
		Inputs:      ingress.CellInputList{{PreviousOutput: ingress.OutPoint{Index: 0xffffffff}}},
		Outputs:     ingress.CellOutputList{{Capacity: capacity, Lock: testLock()}},
		OutputsData: ingress.BytesList{{}},
	}
}

func testSpend(from *ingress.Transaction, capacity ingress.Capacity) *ingress.Transaction {
	return &ingress.Transaction{
		Inputs:      ingress.CellInputList{{PreviousOutput: ingress.OutPoint{TxHash: from.Hash()}}},
		Outputs:     ingress.CellOutputList{{Capacity: capacity, Lock: testLock()}},
		OutputsData: ingress.BytesList{{}},
	}
}

func testBlock(number uint64, txs ...*ingress.Transaction) *ingress.Block {
	return &ingress.Block{
		Header:       ingress.Header{Number: number},
		Transactions: txs,
	}
}

func encodeBlocks(t *testing.T, blocks ...*ingress.Block) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, b := range blocks {
		require.NoError(t, ingress.BinWrite(b, &buf))
	}
	return buf.Bytes()
}

func requireBlockValid(t *testing.T, n *node, hash ingress.Uint256) {
	t.Helper()
	snap := n.shared.Snapshot()
	require.NotNil(t, snap)
	defer snap.Release()
	require.True(t, snap.ContainsBlockStatus(hash, chain.BlockStatusBlockValid))
}

func submit(t *testing.T, n *node, tx *ingress.Transaction) txpool.Outcome {
	t.Helper()
	outcomes, err := n.pool.SubmitTxs(context.Background(),
		[]*ingress.TransactionView{ingress.NewTransactionView(tx)})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	return outcomes[0]
}

func poolInfo(t *testing.T, n *node) *txpool.Info {
	t.Helper()
	info, err := n.pool.GetTxPoolInfo(context.Background())
	require.NoError(t, err)
	return info
}

func TestImportBlocks(t *testing.T) {
	n := newTestNode(t, nodeConfig{})
	ctx := context.Background()

	cb1, cb2 := testCellbase(100_000), testCellbase(200_000)
	b1, b2 := testBlock(1, cb1), testBlock(2, cb2)
	data := encodeBlocks(t, b1, b2)

	count, err := n.importBlocks(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, count)
	requireBlockValid(t, n, b1.Hash())
	requireBlockValid(t, n, b2.Hash())

	// Importing again skips connected blocks.
	count, err = n.importBlocks(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// A block cut short is an error.
	_, err = n.importBlocks(ctx, bytes.NewReader(data[:len(data)-1]))
	require.Error(t, err)
}

func TestConnectBlockUpdatesPool(t *testing.T) {
	n := newTestNode(t, nodeConfig{})
	ctx := context.Background()

	cb1, cb2 := testCellbase(100_000), testCellbase(200_000)
	require.NoError(t, n.connectBlock(ctx, testBlock(1, cb1, cb2)))

	spend1 := testSpend(cb1, 90_000)
	spend2 := testSpend(cb2, 190_000)
	require.Equal(t, txpool.Accepted{}, submit(t, n, spend1))
	require.Equal(t, txpool.Accepted{}, submit(t, n, spend2))
	require.Equal(t, uint64(2), poolInfo(t, n).Pending)

	// Block 2 proposes spend2, block 3 commits spend1.
	b2 := testBlock(2, testCellbase(300_000))
	b2.Proposals = []ingress.ProposalShortID{ingress.NewProposalShortID(spend2.Hash())}
	require.NoError(t, n.connectBlock(ctx, b2))
	info := poolInfo(t, n)
	require.Equal(t, uint64(1), info.Pending)
	require.Equal(t, uint64(1), info.Proposed)

	b3 := testBlock(3, testCellbase(400_000), spend1)
	require.NoError(t, n.connectBlock(ctx, b3))
	requireBlockValid(t, n, b3.Hash())
	info = poolInfo(t, n)
	require.Equal(t, uint64(0), info.Pending)
	require.Equal(t, uint64(1), info.Proposed)

	// The committed output is live. The cell it spent is not, so a
	// second spend waits as an orphan.
	require.Equal(t, txpool.Accepted{}, submit(t, n, testSpend(spend1, 80_000)))
	require.Equal(t, txpool.Accepted{}, submit(t, n, testSpend(cb1, 80_000)))
	info = poolInfo(t, n)
	require.Equal(t, uint64(1), info.Pending)
	require.Equal(t, uint64(1), info.Orphan)
}

func TestRelayLocalTxs(t *testing.T) {
	var announced []ingress.Uint256
	n := newTestNode(t, nodeConfig{
		RelayInterval: time.Hour,
		Announce:      func(h []ingress.Uint256) { announced = append(announced, h...) },
	})

	require.Equal(t, 0, n.relayLocalTxs())

	n.txHashes.Insert(relay.SelfOrigin(), ingress.Uint256{1})
	n.txHashes.Insert(relay.SelfOrigin(), ingress.Uint256{2})
	n.txHashes.Insert(relay.PeerOrigin(7), ingress.Uint256{3})

	require.Equal(t, 2, n.relayLocalTxs())
	require.ElementsMatch(t, []ingress.Uint256{{1}, {2}}, announced)
	require.Equal(t, 0, n.txHashes.Len(relay.SelfOrigin()))
	require.True(t, n.txHashes.Contains(relay.PeerOrigin(7), ingress.Uint256{3}))

	require.Equal(t, 0, n.relayLocalTxs())
}

func TestRelayLoop(t *testing.T) {
	announced := make(chan []ingress.Uint256, 1)
	n := newTestNode(t, nodeConfig{
		RelayInterval: 10 * time.Millisecond,
		Announce:      func(h []ingress.Uint256) { announced <- h },
	})

	n.txHashes.Insert(relay.SelfOrigin(), ingress.Uint256{9})
	select {
	case h := <-announced:
		require.Equal(t, []ingress.Uint256{{9}}, h)
	case <-time.After(5 * time.Second):
		t.Fatal("local tx was not announced")
	}
}
