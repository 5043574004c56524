package chain

import (
	"testing"

	"github.com/blkchain/ingress"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	s := NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func testBlock(number uint64, txs ...*ingress.Transaction) *ingress.Block {
	return &ingress.Block{
		Header:       ingress.Header{Number: number},
		Transactions: txs,
	}
}

func cellbase(capacity ingress.Capacity) *ingress.Transaction {
	return &ingress.Transaction{
		Inputs: ingress.CellInputList{{PreviousOutput: ingress.OutPoint{Index: 0xffffffff}}},
		Outputs: ingress.CellOutputList{{
			Capacity: capacity,
			Lock:     ingress.Script{HashType: ingress.HashTypeType, Args: make([]byte, 20)},
		}},
		OutputsData: ingress.BytesList{{}},
	}
}

func TestStoreBlockAndCells(t *testing.T) {
	s := newTestStore(t)

	cb := cellbase(1000)
	b1 := testBlock(1, cb)
	require.NoError(t, s.InsertBlock(b1, BlockStatusBlockValid))

	status, err := s.BlockStatus(b1.Hash())
	require.NoError(t, err)
	require.Equal(t, BlockStatusBlockValid, status)

	got, err := s.Block(b1.Hash())
	require.NoError(t, err)
	require.Equal(t, b1.Hash(), got.Hash())

	op := ingress.OutPoint{TxHash: cb.Hash()}
	cell, ok, err := s.LiveCell(op)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ingress.Capacity(1000), cell.Capacity)

	// Spend it in the next block.
	spend := &ingress.Transaction{
		Inputs: ingress.CellInputList{{PreviousOutput: op}},
		Outputs: ingress.CellOutputList{
			{Capacity: 400, Lock: ingress.Script{HashType: ingress.HashTypeType}},
			{Capacity: 500, Lock: ingress.Script{HashType: ingress.HashTypeType}},
		},
		OutputsData: ingress.BytesList{{}, {}},
	}
	require.NoError(t, s.InsertBlock(testBlock(2, cellbase(2000), spend), BlockStatusBlockStored))

	_, ok, err = s.LiveCell(op)
	require.NoError(t, err)
	require.False(t, ok)

	for i, want := range []ingress.Capacity{400, 500} {
		cell, ok, err := s.LiveCell(ingress.OutPoint{TxHash: spend.Hash(), Index: uint32(i)})
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, cell.Capacity)
	}

	_, err = s.Block(ingress.Uint256{0xee})
	require.ErrorIs(t, err, ErrNotFound)

	status, err = s.BlockStatus(ingress.Uint256{0xee})
	require.NoError(t, err)
	require.Equal(t, BlockStatusUnknown, status)
}

func TestBlockStatusContains(t *testing.T) {
	require.True(t, BlockStatusBlockValid.Contains(BlockStatusBlockStored))
	require.True(t, BlockStatusBlockValid.Contains(BlockStatusBlockValid))
	require.False(t, BlockStatusBlockStored.Contains(BlockStatusBlockValid))
	require.False(t, BlockStatusBlockInvalid.Contains(BlockStatusBlockValid))
	require.False(t, BlockStatusUnknown.Contains(BlockStatusBlockValid))
	require.Equal(t, "BLOCK_STORED", BlockStatusBlockStored.String())
}

func TestSharedSnapshotIsolation(t *testing.T) {
	shared, err := NewShared(newTestStore(t))
	require.NoError(t, err)
	defer shared.Close()

	b1 := testBlock(1, cellbase(1))
	require.NoError(t, shared.InsertBlock(b1, BlockStatusBlockStored))

	before := shared.Snapshot()
	require.NotNil(t, before)
	defer before.Release()
	require.True(t, before.ContainsBlockStatus(b1.Hash(), BlockStatusBlockStored))
	require.False(t, before.ContainsBlockStatus(b1.Hash(), BlockStatusBlockValid))

	require.NoError(t, shared.SetBlockStatus(b1.Hash(), BlockStatusBlockValid))

	// The old snapshot is unchanged, a new one sees the update.
	require.False(t, before.ContainsBlockStatus(b1.Hash(), BlockStatusBlockValid))

	after := shared.Snapshot()
	defer after.Release()
	require.True(t, after.ContainsBlockStatus(b1.Hash(), BlockStatusBlockValid))

	got, ok := after.Block(b1.Hash())
	require.True(t, ok)
	require.Equal(t, uint64(1), got.Number())

	_, ok = after.Block(ingress.Uint256{0xee})
	require.False(t, ok)
}

func TestSnapshotRefCount(t *testing.T) {
	shared, err := NewShared(newTestStore(t))
	require.NoError(t, err)

	snap := shared.Snapshot()
	require.Equal(t, int32(2), snap.refs.Load())

	require.NoError(t, shared.Refresh())
	require.Equal(t, int32(1), snap.refs.Load())

	snap.Release()
	require.Equal(t, int32(0), snap.refs.Load())
	require.False(t, snap.tryAcquire())

	shared.Close()
	require.Nil(t, shared.Snapshot())
}
