package txpool

import (
	"context"
	"fmt"

	"github.com/blkchain/ingress"
)

// Outcome is the result of submitting one transaction. It is one of
// Accepted, LowFeeRate, ExceededMaximumAncestorsCount or Rejected.
type Outcome interface {
	fmt.Stringer

	isOutcome()
}

// Accepted means the transaction entered the pool, possibly as an
// orphan waiting for its inputs.
type Accepted struct{}

// LowFeeRate means the fee paid is below what the pool's minimum fee
// rate demands for the transaction's size.
type LowFeeRate struct {
	MinFee ingress.Capacity
}

// ExceededMaximumAncestorsCount means the transaction depends on too
// long a chain of pooled transactions. Retrying after some of them are
// committed may succeed.
type ExceededMaximumAncestorsCount struct{}

// Rejected is any other refusal. Reason is shown to users as is.
type Rejected struct {
	Reason string
}

func (Accepted) isOutcome() {}
func (LowFeeRate) isOutcome() {}
func (ExceededMaximumAncestorsCount) isOutcome() {}
func (Rejected) isOutcome() {}

func (Accepted) String() string { return "accepted" }

func (o LowFeeRate) String() string {
	return fmt.Sprintf("low fee rate, min fee %d", o.MinFee)
}

func (ExceededMaximumAncestorsCount) String() string {
	return "exceeded maximum ancestors count"
}

func (o Rejected) String() string { return o.Reason }

// Info is a point in time summary of the pool.
type Info struct {
	Pending       uint64
	Proposed      uint64
	Orphan        uint64
	TotalTxSize   uint64
	TotalTxCycles uint64

	// LastTxsUpdatedAt is the time of the last change to any of the
	// counts above, in milliseconds since the unix epoch. Zero if the
	// pool never changed.
	LastTxsUpdatedAt uint64
}

// Handle is the interface the rest of the node uses to reach the pool.
// Both calls block until the pool answers. An error means the request
// could not be served at all, not that a transaction was refused.
type Handle interface {
	SubmitTxs(ctx context.Context, txs []*ingress.TransactionView) ([]Outcome, error)
	GetTxPoolInfo(ctx context.Context) (*Info, error)
}
