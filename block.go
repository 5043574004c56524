package ingress

import (
	"io"
)

// ProposalShortID is the first 10 bytes of a proposed transaction's
// hash.
type ProposalShortID [10]byte

func NewProposalShortID(txHash Uint256) ProposalShortID {
	var id ProposalShortID
	copy(id[:], txHash[:])
	return id
}

type Block struct {
	Header       Header
	Transactions TransactionList
	Proposals    []ProposalShortID
}

func (b *Block) Hash() Uint256 {
	return b.Header.Hash()
}

func (b *Block) Number() uint64 {
	return b.Header.Number
}

func (b *Block) Size() int {
	return b.Header.Size() + b.Transactions.Size() +
		compactSizeSize(uint64(len(b.Proposals))) + len(b.Proposals)*10
}

func (b *Block) BinRead(r io.Reader) (err error) {
	if err = BinRead(&b.Header, r); err != nil {
		return err
	}
	if err = BinRead(&b.Transactions, r); err != nil {
		return err
	}
	return readList(r, func(r io.Reader) error {
		var id ProposalShortID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return err
		}
		b.Proposals = append(b.Proposals, id)
		return nil
	})
}

func (b *Block) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(&b.Header, w); err != nil {
		return err
	}
	if err = BinWrite(&b.Transactions, w); err != nil {
		return err
	}
	return writeList(w, len(b.Proposals), func(w io.Writer, i int) error {
		_, err := w.Write(b.Proposals[i][:])
		return err
	})
}
