package policy

import (
	"encoding/binary"
	"errors"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/consensus"
)

// SighashAllLock builds the standard single signature lock for a
// secp256k1 public key.
func SighashAllLock(params *consensus.Params, pubKey []byte) (*ingress.Script, error) {
	code, err := params.SecpSighashAllTypeHash()
	if err != nil {
		return nil, err
	}
	hash, err := ingress.PubKeyHash(pubKey)
	if err != nil {
		return nil, err
	}
	return &ingress.Script{
		CodeHash: code,
		HashType: ingress.HashTypeType,
		Args:     hash[:],
	}, nil
}

// MultisigLock builds a threshold-of-len(pubKeys) multisig lock where
// the first requireFirstN keys must sign. A non-zero since is appended
// to the args as a lock time.
func MultisigLock(params *consensus.Params, requireFirstN, threshold byte,
	pubKeys [][]byte, since ingress.Since) (*ingress.Script, error) {

	if len(pubKeys) == 0 || len(pubKeys) > 255 {
		return nil, errors.New("invalid number of public keys")
	}
	if threshold == 0 || int(threshold) > len(pubKeys) || requireFirstN > threshold {
		return nil, errors.New("invalid multisig threshold")
	}
	code, err := params.SecpMultisigTypeHash()
	if err != nil {
		return nil, err
	}

	// Reserved byte, require first n, threshold, key count, then the
	// key hashes.
	multisig := []byte{0, requireFirstN, threshold, byte(len(pubKeys))}
	for _, pk := range pubKeys {
		hash, err := ingress.PubKeyHash(pk)
		if err != nil {
			return nil, err
		}
		multisig = append(multisig, hash[:]...)
	}
	hash := ingress.Blake160(multisig)
	args := hash[:]
	if since != 0 {
		args = binary.LittleEndian.AppendUint64(args, uint64(since))
	}
	return &ingress.Script{
		CodeHash: code,
		HashType: ingress.HashTypeType,
		Args:     args,
	}, nil
}
