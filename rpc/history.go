package rpc

import (
	"context"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/journal"
)

const (
	DefaultLocalTxsLimit = 100
	MaxLocalTxsLimit     = 1000
)

// History reads back the transactions a Recorder kept.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Lookup(ctx context.Context, hashes []ingress.Uint256) ([]journal.Entry, error)
}

func (r *PoolRPC) history() (History, error) {
	if r.cfg.History == nil {
		return nil, invalidf("local transaction journal is disabled")
	}
	return r.cfg.History, nil
}

// LocalTransactions returns the latest locally submitted transactions
// the pool accepted, newest first.
func (r *PoolRPC) LocalTransactions(ctx context.Context, limit int) ([]*LocalTx, error) {
	h, err := r.history()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxLocalTxsLimit {
		return nil, invalidf("limit must be between 1 and %d", MaxLocalTxsLimit)
	}

	entries, err := h.Recent(ctx, limit)
	if err != nil {
		log.Errorf("Unable to read recent local txs: %v", err)
		return nil, internalError()
	}
	result := make([]*LocalTx, 0, len(entries))
	for i := range entries {
		result = append(result, newLocalTx(&entries[i]))
	}
	return result, nil
}

// LocalTransaction returns the journal entry for hash, or nil if the
// transaction was never accepted from this node.
func (r *PoolRPC) LocalTransaction(ctx context.Context, hash ingress.Uint256) (*LocalTx, error) {
	h, err := r.history()
	if err != nil {
		return nil, err
	}

	entries, err := h.Lookup(ctx, []ingress.Uint256{hash})
	if err != nil {
		log.Errorf("Unable to look up local tx %v: %v", hash, err)
		return nil, internalError()
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return newLocalTx(&entries[0]), nil
}

func newLocalTx(e *journal.Entry) *LocalTx {
	return &LocalTx{
		Hash:             e.Hash,
		Size:             Uint64(e.Size),
		OutputsValidator: e.Validator,
		AcceptedAt:       Uint64(e.AcceptedAt.UnixMilli()),
	}
}
