package policy

import (
	"encoding/binary"
	"fmt"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/consensus"
	fn "github.com/lightningnetwork/lnd/fn/v2"
)

// DefaultOutputsValidator accepts an output when its lock is a standard
// sighash or multisig lock and its type script, if any, is the DAO
// script. The system cell hashes are resolved once, when the validator
// is built.
type DefaultOutputsValidator struct {
	sighashAll ingress.Uint256
	multisig   ingress.Uint256
	dao        ingress.Uint256
}

// NewDefaultOutputsValidator fails with consensus.ErrMissingSystemCell
// if params lacks any of the three system cells.
func NewDefaultOutputsValidator(params *consensus.Params) (*DefaultOutputsValidator, error) {
	var (
		v   DefaultOutputsValidator
		err error
	)
	if v.sighashAll, err = params.SecpSighashAllTypeHash(); err != nil {
		return nil, err
	}
	if v.multisig, err = params.SecpMultisigTypeHash(); err != nil {
		return nil, err
	}
	if v.dao, err = params.DaoTypeHash(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate checks every output in order and reports the first one that
// is rejected.
func (v *DefaultOutputsValidator) Validate(tx *ingress.TransactionView) error {
	for i, output := range tx.Outputs() {
		if !v.ValidateOutput(output) {
			return fmt.Errorf("output %d is invalid", i)
		}
	}
	return nil
}

func (v *DefaultOutputsValidator) ValidateOutput(output *ingress.CellOutput) bool {
	return v.validateLockScript(output) && v.validateTypeScript(output)
}

func (v *DefaultOutputsValidator) validateLockScript(output *ingress.CellOutput) bool {
	return v.isSighashAll(&output.Lock) || v.isMultisig(&output.Lock)
}

func (v *DefaultOutputsValidator) validateTypeScript(output *ingress.CellOutput) bool {
	return v.isDao(output)
}

func (v *DefaultOutputsValidator) isSighashAll(lock *ingress.Script) bool {
	return lock.IsHashTypeType() &&
		lock.CodeHash == v.sighashAll &&
		len(lock.Args) == ingress.Blake160Len
}

// isMultisig accepts any args length other than blake160 + since. Only
// that length carries a lock time, and its flags must be valid.
func (v *DefaultOutputsValidator) isMultisig(lock *ingress.Script) bool {
	if !lock.IsHashTypeType() || lock.CodeHash != v.multisig {
		return false
	}
	if len(lock.Args) == ingress.Blake160Len {
		return true
	}
	valid := true
	extractSince(lock).WhenSome(func(since ingress.Since) {
		valid = since.FlagsIsValid()
	})
	return valid
}

// isDao is vacuously true for outputs without a type script. A DAO
// typed output whose lock carries a lock time must use an absolute
// epoch lock.
func (v *DefaultOutputsValidator) isDao(output *ingress.CellOutput) bool {
	typ := output.Type
	if typ == nil {
		return true
	}
	if !typ.IsHashTypeType() || typ.CodeHash != v.dao {
		return false
	}
	valid := true
	extractSince(&output.Lock).WhenSome(func(since ingress.Since) {
		if !since.IsAbsolute() {
			valid = false
			return
		}
		m, ok := since.ExtractMetric()
		valid = ok && m.Kind == ingress.SinceMetricEpochNumberWithFraction
	})
	return valid
}

// extractSince reads the little endian lock time that follows the
// public key hash in multisig args. Any other args length has none.
func extractSince(lock *ingress.Script) fn.Option[ingress.Since] {
	if len(lock.Args) != ingress.Blake160Len+ingress.SinceLen {
		return fn.None[ingress.Since]()
	}
	since := binary.LittleEndian.Uint64(lock.Args[ingress.Blake160Len:])
	return fn.Some(ingress.Since(since))
}
