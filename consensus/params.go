package consensus

import (
	"errors"
	"fmt"

	"github.com/blkchain/ingress"
)

const (
	// MaxHeadersLen bounds the number of hashes a peer may put in one
	// GetBlocks or GetHeaders message.
	MaxHeadersLen = 2000

	// MaxBlocksInTransitPerPeer is the most blocks sent to one peer in
	// response to a single request.
	MaxBlocksInTransitPerPeer = 128

	DefaultMaxAncestorsCount = 25
)

// ErrMissingSystemCell means the genesis configuration lacks one of the
// system cells the node needs. It is a startup error.
var ErrMissingSystemCell = errors.New("missing system cell")

type SystemCell int

const (
	SecpSighashAll SystemCell = iota
	SecpMultisig
	Dao
)

func (c SystemCell) String() string {
	switch c {
	case SecpSighashAll:
		return "secp256k1_blake160_sighash_all"
	case SecpMultisig:
		return "secp256k1_blake160_multisig_all"
	case Dao:
		return "dao"
	default:
		return fmt.Sprintf("system_cell(%d)", int(c))
	}
}

// Params is the read-only consensus configuration shared by the whole
// node. Build one with NewParams or MainnetParams and never modify it.
type Params struct {
	name       string
	typeHashes map[SystemCell]ingress.Uint256
}

func NewParams(name string, typeHashes map[SystemCell]ingress.Uint256) *Params {
	p := &Params{name: name, typeHashes: make(map[SystemCell]ingress.Uint256, len(typeHashes))}
	for k, v := range typeHashes {
		p.typeHashes[k] = v
	}
	return p
}

func (p *Params) Name() string { return p.name }

// TypeHash returns the type script hash of a system cell.
func (p *Params) TypeHash(cell SystemCell) (ingress.Uint256, error) {
	h, ok := p.typeHashes[cell]
	if !ok {
		return ingress.Uint256{}, fmt.Errorf("%w: %s", ErrMissingSystemCell, cell)
	}
	return h, nil
}

func (p *Params) SecpSighashAllTypeHash() (ingress.Uint256, error) {
	return p.TypeHash(SecpSighashAll)
}

func (p *Params) SecpMultisigTypeHash() (ingress.Uint256, error) {
	return p.TypeHash(SecpMultisig)
}

func (p *Params) DaoTypeHash() (ingress.Uint256, error) {
	return p.TypeHash(Dao)
}

// WithTypeHash returns a copy of p with one type hash replaced.
func (p *Params) WithTypeHash(cell SystemCell, h ingress.Uint256) *Params {
	q := NewParams(p.name, p.typeHashes)
	q.typeHashes[cell] = h
	return q
}

// WithoutTypeHash returns a copy of p lacking the given system cell.
func (p *Params) WithoutTypeHash(cell SystemCell) *Params {
	q := NewParams(p.name, p.typeHashes)
	delete(q.typeHashes, cell)
	return q
}

func mustHash(s string) ingress.Uint256 {
	h, err := ingress.Uint256FromString(s)
	if err != nil {
		panic(err)
	}
	return h
}

var mainnetTypeHashes = map[SystemCell]ingress.Uint256{
	SecpSighashAll: mustHash("0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8"),
	SecpMultisig:   mustHash("0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"),
	Dao:            mustHash("0x82d76d1b75fe2fd9a27dfbaa65a039221a380d76c926f378d3f81cf3e7e13f2e"),
}

func MainnetParams() *Params {
	return NewParams("mainnet", mainnetTypeHashes)
}
