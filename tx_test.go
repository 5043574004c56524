package ingress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTransaction() *Transaction {
	typeScript := &Script{CodeHash: Uint256{2}, HashType: HashTypeType}
	return &Transaction{
		Version: 0,
		CellDeps: CellDepList{
			{OutPoint: OutPoint{TxHash: Uint256{9}, Index: 0}, DepType: DepTypeDepGroup},
		},
		HeaderDeps: HashList{{7}},
		Inputs: CellInputList{
			{Since: NewRelativeSince(SinceMetricBlockNumber, 5), PreviousOutput: OutPoint{TxHash: Uint256{1}, Index: 3}},
		},
		Outputs: CellOutputList{
			{Capacity: 6100000000, Lock: Script{CodeHash: Uint256{1}, HashType: HashTypeType, Args: make([]byte, 20)}},
			{Capacity: 10200000000, Lock: Script{CodeHash: Uint256{1}, HashType: HashTypeType, Args: make([]byte, 20)}, Type: typeScript},
		},
		OutputsData: BytesList{{}, make([]byte, 8)},
		Witnesses:   BytesList{[]byte("signature")},
	}
}

func TestTransactionCodec(t *testing.T) {
	tx := testTransaction()

	buf, err := Encode(tx)
	require.NoError(t, err)
	require.Equal(t, tx.Size(), len(buf))
	require.Equal(t, len(buf)+4, tx.SerializedSizeInBlock())

	view, err := DecodeTransactionView(buf)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), view.Hash())
	require.Nil(t, view.Outputs()[0].Type)
	require.NotNil(t, view.Outputs()[1].Type)

	again, err := Encode(view.Transaction())
	require.NoError(t, err)
	require.True(t, bytes.Equal(buf, again))
}

func TestTransactionHashIgnoresWitnesses(t *testing.T) {
	tx := testTransaction()
	h := tx.Hash()

	tx.Witnesses = BytesList{[]byte("another signature")}
	require.Equal(t, h, tx.Hash())

	tx.Outputs[0].Capacity++
	require.NotEqual(t, h, tx.Hash())
}

func TestDecodeTransactionViewErrors(t *testing.T) {
	buf, err := Encode(testTransaction())
	require.NoError(t, err)

	_, err = DecodeTransactionView(buf[:len(buf)-1])
	require.Error(t, err)

	_, err = DecodeTransactionView(append(buf, 0))
	require.Error(t, err)

	_, err = DecodeTransactionView(nil)
	require.Error(t, err)
}

func TestBlockCodec(t *testing.T) {
	b := &Block{
		Header: Header{
			Number:    12,
			Timestamp: 1700000000000,
			Epoch:     NewEpochNumberWithFraction(1, 2, 1800),
		},
		Transactions: TransactionList{testTransaction()},
		Proposals:    []ProposalShortID{NewProposalShortID(Uint256{5})},
	}

	buf, err := Encode(b)
	require.NoError(t, err)
	require.Equal(t, b.Size(), len(buf))

	var decoded Block
	require.NoError(t, Decode(&decoded, buf))
	require.Equal(t, b.Hash(), decoded.Hash())
	require.Equal(t, uint64(12), decoded.Number())
	require.Len(t, decoded.Transactions, 1)
	require.Equal(t, b.Transactions[0].Hash(), decoded.Transactions[0].Hash())
	require.Equal(t, b.Proposals, decoded.Proposals)
}

func TestFeeRate(t *testing.T) {
	require.Equal(t, Capacity(1000), FeeRate(1000).Fee(1000))
	require.Equal(t, Capacity(274), FeeRate(1000).Fee(274))
	require.Equal(t, Capacity(0), FeeRate(1).Fee(999))
	require.Equal(t, FeeRate(2000), FeeRateFromFee(500, 250))

	_, ok := Capacity(^uint64(0)).SafeAdd(1)
	require.False(t, ok)
}

func TestUint256FromString(t *testing.T) {
	s := "0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8"
	u, err := Uint256FromString(s)
	require.NoError(t, err)
	require.Equal(t, s, u.String())

	_, err = Uint256FromString("0x1234")
	require.Error(t, err)
}
