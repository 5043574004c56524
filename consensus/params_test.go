package consensus

import (
	"errors"
	"testing"

	"github.com/blkchain/ingress"
	"github.com/stretchr/testify/require"
)

func TestMainnetParams(t *testing.T) {
	p := MainnetParams()

	h, err := p.SecpSighashAllTypeHash()
	require.NoError(t, err)
	require.Equal(t, "0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8", h.String())

	_, err = p.SecpMultisigTypeHash()
	require.NoError(t, err)
	_, err = p.DaoTypeHash()
	require.NoError(t, err)
}

func TestMissingSystemCell(t *testing.T) {
	p := MainnetParams().WithoutTypeHash(Dao)

	_, err := p.DaoTypeHash()
	require.True(t, errors.Is(err, ErrMissingSystemCell))

	// The receiver is untouched.
	_, err = MainnetParams().DaoTypeHash()
	require.NoError(t, err)
}

func TestWithTypeHash(t *testing.T) {
	base := MainnetParams()
	p := base.WithTypeHash(SecpSighashAll, ingress.Uint256{1})

	h, err := p.SecpSighashAllTypeHash()
	require.NoError(t, err)
	require.Equal(t, ingress.Uint256{1}, h)

	h, err = base.SecpSighashAllTypeHash()
	require.NoError(t, err)
	require.NotEqual(t, ingress.Uint256{1}, h)
}
