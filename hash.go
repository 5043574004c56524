package ingress

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// Blake160Len is the length of a public key hash in lock script args.
const Blake160Len = 20

// Blake160 is the first 20 bytes of the blake2b-256 digest.
func Blake160(b []byte) [Blake160Len]byte {
	var result [Blake160Len]byte
	h := Blake2b256(b)
	copy(result[:], h[:Blake160Len])
	return result
}

// PubKeyHash parses a secp256k1 public key, compressed or not, and
// returns the blake160 of its compressed form.
func PubKeyHash(pubKey []byte) ([Blake160Len]byte, error) {
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return [Blake160Len]byte{}, err
	}
	return Blake160(key.SerializeCompressed()), nil
}
