package rpc

import (
	"context"
	"fmt"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/consensus"
	"github.com/blkchain/ingress/metrics"
	"github.com/blkchain/ingress/policy"
	"github.com/blkchain/ingress/relay"
	"github.com/blkchain/ingress/txpool"
	fn "github.com/lightningnetwork/lnd/fn/v2"
)

// Recorder is told about every locally submitted transaction the pool
// accepts.
type Recorder interface {
	RecordLocalTx(ctx context.Context, hash ingress.Uint256, size int,
		validator policy.OutputsValidator) error
}

type Config struct {
	Pool     txpool.Handle
	TxHashes *relay.TxHashes
	Params   *consensus.Params

	// MinFeeRate is the pool's minimum, quoted in low fee errors.
	MinFeeRate ingress.FeeRate

	// Recorder, History and Metrics are optional. Without History the
	// local transaction methods fail.
	Recorder Recorder
	History  History
	Metrics  *metrics.Metrics
}

// PoolRPC implements send_transaction and tx_pool_info.
type PoolRPC struct {
	cfg       Config
	validator *policy.DefaultOutputsValidator
}

// NewPoolRPC fails if the consensus params lack a system cell the
// default outputs validator needs.
func NewPoolRPC(cfg Config) (*PoolRPC, error) {
	validator, err := policy.NewDefaultOutputsValidator(cfg.Params)
	if err != nil {
		return nil, err
	}
	if cfg.TxHashes == nil {
		cfg.TxHashes = relay.NewTxHashes()
	}
	return &PoolRPC{cfg: cfg, validator: validator}, nil
}

// SendTransaction validates and submits a serialized transaction and
// returns its hash. Without a validator the default one is used.
func (r *PoolRPC) SendTransaction(ctx context.Context, payload []byte,
	outputsValidator fn.Option[policy.OutputsValidator]) (ingress.Uint256, error) {

	tx, err := ingress.DecodeTransactionView(payload)
	if err != nil {
		r.cfg.Metrics.TxSubmitted(metrics.ResultMalformed)
		return ingress.Uint256{}, invalidf("malformed transaction: %v", err)
	}

	mode := outputsValidator.UnwrapOr(policy.ValidatorDefault)
	switch mode {
	case policy.ValidatorDefault:
		err = r.validator.Validate(tx)
	case policy.ValidatorPassthrough:
	default:
		err = fmt.Errorf("unknown outputs validator %v", mode)
	}
	if err != nil {
		r.cfg.Metrics.TxSubmitted(metrics.ResultInvalidOutputs)
		return ingress.Uint256{}, invalidf("%v", err)
	}

	outcomes, err := r.cfg.Pool.SubmitTxs(ctx, []*ingress.TransactionView{tx})
	if err == nil && len(outcomes) != 1 {
		err = fmt.Errorf("expected 1 outcome, got %d", len(outcomes))
	}
	if err != nil {
		log.Errorf("send submit_txs request error %v", err)
		r.cfg.Metrics.TxSubmitted(metrics.ResultInternalError)
		return ingress.Uint256{}, internalError()
	}

	switch o := outcomes[0].(type) {
	case txpool.Accepted:
		hash := tx.Hash()
		r.cfg.TxHashes.Insert(relay.SelfOrigin(), hash)
		r.record(ctx, tx, mode)
		r.cfg.Metrics.TxSubmitted(metrics.ResultAccepted)
		return hash, nil

	case txpool.LowFeeRate:
		r.cfg.Metrics.TxSubmitted(metrics.ResultLowFeeRate)
		return ingress.Uint256{}, invalidf("transaction fee rate lower than "+
			"min_fee_rate: %v shannons/KB, min fee for current tx: %v",
			r.cfg.MinFeeRate, o.MinFee)

	case txpool.ExceededMaximumAncestorsCount:
		r.cfg.Metrics.TxSubmitted(metrics.ResultAncestorsExceeded)
		return ingress.Uint256{}, invalidf("transaction exceeded maximum " +
			"ancestors count limit, try send it later")

	default:
		r.cfg.Metrics.TxSubmitted(metrics.ResultRejected)
		return ingress.Uint256{}, invalidf("%v", o)
	}
}

func (r *PoolRPC) record(ctx context.Context, tx *ingress.TransactionView,
	mode policy.OutputsValidator) {

	if r.cfg.Recorder == nil {
		return
	}
	err := r.cfg.Recorder.RecordLocalTx(ctx, tx.Hash(),
		tx.SerializedSizeInBlock(), mode)
	if err != nil {
		log.Warnf("Unable to record tx %v: %v", tx.Hash(), err)
	}
}

// TxPoolInfo returns the pool's statistics.
func (r *PoolRPC) TxPoolInfo(ctx context.Context) (*TxPoolInfo, error) {
	info, err := r.cfg.Pool.GetTxPoolInfo(ctx)
	if err != nil {
		log.Errorf("send get_tx_pool_info request error %v", err)
		return nil, internalError()
	}
	r.cfg.Metrics.SetPoolSize(info.Pending, info.Orphan)

	return &TxPoolInfo{
		Pending:          Uint64(info.Pending),
		Proposed:         Uint64(info.Proposed),
		Orphan:           Uint64(info.Orphan),
		TotalTxSize:      Uint64(info.TotalTxSize),
		TotalTxCycles:    Uint64(info.TotalTxCycles),
		LastTxsUpdatedAt: Uint64(info.LastTxsUpdatedAt),
	}, nil
}
