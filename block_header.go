package ingress

import (
	"bytes"
	"io"
)

// HeaderSize is the fixed serialized size of a Header.
const HeaderSize = 4 + 4 + 8 + 8 + 8 + 32*3 + 16

type Header struct {
	Version          uint32
	CompactTarget    uint32
	Timestamp        uint64 // milliseconds
	Number           uint64
	Epoch            EpochNumberWithFraction
	ParentHash       Uint256
	TransactionsRoot Uint256
	ProposalsHash    Uint256
	Nonce            [16]byte
}

// Hash is the block hash.
func (h *Header) Hash() Uint256 {
	buf := new(bytes.Buffer)
	BinWrite(h, buf)
	return Blake2b256(buf.Bytes())
}

func (h *Header) Size() int {
	return HeaderSize
}

func (h *Header) BinRead(r io.Reader) error {
	return BinRead((*rawHeader)(h), r)
}

func (h *Header) BinWrite(w io.Writer) error {
	return BinWrite((*rawHeader)(h), w)
}

// rawHeader has no methods, so BinRead/BinWrite fall through to the
// fixed size little endian encoding.
type rawHeader Header
