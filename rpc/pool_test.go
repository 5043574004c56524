package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/consensus"
	"github.com/blkchain/ingress/policy"
	"github.com/blkchain/ingress/relay"
	"github.com/blkchain/ingress/txpool"
	"github.com/btcsuite/btcd/btcjson"
	fn "github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

type mockPool struct {
	outcome   txpool.Outcome
	err       error
	info      *txpool.Info
	submitted []*ingress.TransactionView
}

func (m *mockPool) SubmitTxs(_ context.Context, txs []*ingress.TransactionView) ([]txpool.Outcome, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.submitted = append(m.submitted, txs...)
	return []txpool.Outcome{m.outcome}, nil
}

func (m *mockPool) GetTxPoolInfo(context.Context) (*txpool.Info, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

type mockRecorder struct {
	hashes []ingress.Uint256
	modes  []policy.OutputsValidator
	err    error
}

func (m *mockRecorder) RecordLocalTx(_ context.Context, hash ingress.Uint256,
	_ int, mode policy.OutputsValidator) error {

	m.hashes = append(m.hashes, hash)
	m.modes = append(m.modes, mode)
	return m.err
}

func newTestRPC(t *testing.T, pool txpool.Handle) (*PoolRPC, *relay.TxHashes) {
	t.Helper()
	hashes := relay.NewTxHashes()
	r, err := NewPoolRPC(Config{
		Pool:       pool,
		TxHashes:   hashes,
		Params:     consensus.MainnetParams(),
		MinFeeRate: ingress.DefaultMinFeeRate,
	})
	require.NoError(t, err)
	return r, hashes
}

// encodeTx returns a serialized transaction with one output. With
// standard set the output uses the sighash lock, otherwise a lock no
// template matches.
func encodeTx(t *testing.T, standard bool) ([]byte, ingress.Uint256) {
	t.Helper()
	lock := ingress.Script{HashType: ingress.HashTypeType, Args: make([]byte, 20)}
	if standard {
		h, err := consensus.MainnetParams().SecpSighashAllTypeHash()
		require.NoError(t, err)
		lock.CodeHash = h
	} else {
		lock.CodeHash = ingress.Uint256{0xde, 0xad}
	}
	tx := &ingress.Transaction{
		Inputs:      ingress.CellInputList{{PreviousOutput: ingress.OutPoint{TxHash: ingress.Uint256{1}}}},
		Outputs:     ingress.CellOutputList{{Capacity: 6_100_000_000, Lock: lock}},
		OutputsData: ingress.BytesList{{}},
	}
	buf, err := ingress.Encode(tx)
	require.NoError(t, err)
	return buf, tx.Hash()
}

func requireRPCError(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr), "%v", err)
	require.Equal(t, kind, rpcErr.Kind)
	return rpcErr
}

func TestMissingSystemCellFailsConstruction(t *testing.T) {
	_, err := NewPoolRPC(Config{
		Pool:   &mockPool{},
		Params: consensus.MainnetParams().WithoutTypeHash(consensus.SecpMultisig),
	})
	require.ErrorIs(t, err, consensus.ErrMissingSystemCell)
}

func TestSendTransactionAccepted(t *testing.T) {
	pool := &mockPool{outcome: txpool.Accepted{}}
	r, hashes := newTestRPC(t, pool)
	rec := &mockRecorder{err: errors.New("journal down")}
	r.cfg.Recorder = rec

	payload, want := encodeTx(t, true)
	hash, err := r.SendTransaction(context.Background(), payload, fn.None[policy.OutputsValidator]())
	require.NoError(t, err)
	require.Equal(t, want, hash)

	require.True(t, hashes.Contains(relay.SelfOrigin(), want))
	require.Len(t, pool.submitted, 1)

	// A failing recorder does not fail the request.
	require.Equal(t, []ingress.Uint256{want}, rec.hashes)
	require.Equal(t, []policy.OutputsValidator{policy.ValidatorDefault}, rec.modes)
}

func TestSendTransactionDefaultRejectsOutput(t *testing.T) {
	pool := &mockPool{outcome: txpool.Accepted{}}
	r, hashes := newTestRPC(t, pool)

	payload, want := encodeTx(t, false)
	for _, mode := range []fn.Option[policy.OutputsValidator]{
		fn.None[policy.OutputsValidator](),
		fn.Some(policy.ValidatorDefault),
	} {
		_, err := r.SendTransaction(context.Background(), payload, mode)
		rpcErr := requireRPCError(t, err, ErrorKindInvalid)
		require.Equal(t, "output 0 is invalid", rpcErr.Message)
	}
	require.Empty(t, pool.submitted)
	require.False(t, hashes.Contains(relay.SelfOrigin(), want))
}

func TestSendTransactionPassthrough(t *testing.T) {
	pool := &mockPool{outcome: txpool.Accepted{}}
	r, _ := newTestRPC(t, pool)

	payload, want := encodeTx(t, false)
	hash, err := r.SendTransaction(context.Background(), payload,
		fn.Some(policy.ValidatorPassthrough))
	require.NoError(t, err)
	require.Equal(t, want, hash)
	require.Len(t, pool.submitted, 1)
	require.Equal(t, want, pool.submitted[0].Hash())
}

func TestSendTransactionLowFeeRate(t *testing.T) {
	pool := &mockPool{outcome: txpool.LowFeeRate{MinFee: 374}}
	r, hashes := newTestRPC(t, pool)

	payload, want := encodeTx(t, true)
	_, err := r.SendTransaction(context.Background(), payload, fn.None[policy.OutputsValidator]())
	rpcErr := requireRPCError(t, err, ErrorKindInvalid)
	require.Equal(t, ErrRPCInvalid, rpcErr.Code())
	require.Equal(t, "transaction fee rate lower than min_fee_rate: 1000 "+
		"shannons/KB, min fee for current tx: 374", rpcErr.Message)
	require.False(t, hashes.Contains(relay.SelfOrigin(), want))
}

func TestSendTransactionAncestorsExceeded(t *testing.T) {
	pool := &mockPool{outcome: txpool.ExceededMaximumAncestorsCount{}}
	r, _ := newTestRPC(t, pool)

	payload, _ := encodeTx(t, true)
	_, err := r.SendTransaction(context.Background(), payload, fn.None[policy.OutputsValidator]())
	rpcErr := requireRPCError(t, err, ErrorKindInvalid)
	require.Contains(t, rpcErr.Message, "try send it later")
}

func TestSendTransactionRejectedVerbatim(t *testing.T) {
	pool := &mockPool{outcome: txpool.Rejected{Reason: "Duplicated"}}
	r, _ := newTestRPC(t, pool)

	payload, _ := encodeTx(t, true)
	_, err := r.SendTransaction(context.Background(), payload, fn.None[policy.OutputsValidator]())
	rpcErr := requireRPCError(t, err, ErrorKindInvalid)
	require.Equal(t, "Duplicated", rpcErr.Message)
}

func TestSendTransactionInternalError(t *testing.T) {
	pool := &mockPool{err: txpool.ErrPoolStopped}
	r, _ := newTestRPC(t, pool)

	payload, _ := encodeTx(t, true)
	_, err := r.SendTransaction(context.Background(), payload, fn.None[policy.OutputsValidator]())
	rpcErr := requireRPCError(t, err, ErrorKindInternal)
	require.Equal(t, "Internal error", rpcErr.Message)
	require.Equal(t, btcjson.ErrRPCInternal.Code, rpcErr.Code())
	require.NotContains(t, rpcErr.Message, "stopped")
}

func TestSendTransactionMalformed(t *testing.T) {
	pool := &mockPool{outcome: txpool.Accepted{}}
	r, _ := newTestRPC(t, pool)

	payload, _ := encodeTx(t, true)
	_, err := r.SendTransaction(context.Background(), payload[:10], fn.None[policy.OutputsValidator]())
	requireRPCError(t, err, ErrorKindInvalid)
	require.Empty(t, pool.submitted)
}

func TestTxPoolInfo(t *testing.T) {
	pool := &mockPool{info: &txpool.Info{
		Pending:          3,
		Proposed:         2,
		Orphan:           1,
		TotalTxSize:      1024,
		TotalTxCycles:    5000,
		LastTxsUpdatedAt: 1588334400000,
	}}
	r, _ := newTestRPC(t, pool)

	info, err := r.TxPoolInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, &TxPoolInfo{
		Pending:          3,
		Proposed:         2,
		Orphan:           1,
		TotalTxSize:      1024,
		TotalTxCycles:    5000,
		LastTxsUpdatedAt: 1588334400000,
	}, info)

	pool.err = errors.New("pool gone")
	_, err = r.TxPoolInfo(context.Background())
	requireRPCError(t, err, ErrorKindInternal)
}
