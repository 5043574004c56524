package policy

import (
	"testing"

	"github.com/blkchain/ingress"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func testPubKey(t *testing.T, seed byte) []byte {
	t.Helper()
	secret := make([]byte, 32)
	secret[31] = seed
	_, pub := btcec.PrivKeyFromBytes(secret)
	return pub.SerializeCompressed()
}

func TestStandardLocksPassDefaultValidator(t *testing.T) {
	v, p := newValidator(t)

	lock, err := SighashAllLock(p, testPubKey(t, 1))
	require.NoError(t, err)
	require.True(t, v.ValidateOutput(&ingress.CellOutput{Lock: *lock}))

	keys := [][]byte{testPubKey(t, 2), testPubKey(t, 3), testPubKey(t, 4)}
	lock, err = MultisigLock(p, 0, 2, keys, 0)
	require.NoError(t, err)
	require.Len(t, lock.Args, ingress.Blake160Len)
	require.True(t, v.ValidateOutput(&ingress.CellOutput{Lock: *lock}))

	since := ingress.NewAbsoluteSince(ingress.SinceMetricEpochNumberWithFraction,
		uint64(ingress.NewEpochNumberWithFraction(10, 0, 1)))
	lock, err = MultisigLock(p, 0, 2, keys, since)
	require.NoError(t, err)
	require.Len(t, lock.Args, ingress.Blake160Len+ingress.SinceLen)
	require.True(t, v.ValidateOutput(&ingress.CellOutput{Lock: *lock}))

	_, err = MultisigLock(p, 0, 4, keys, 0)
	require.Error(t, err)

	_, err = SighashAllLock(p, []byte{1, 2, 3})
	require.Error(t, err)
}
