package ingress

import (
	"bytes"
	"io"
)

type Transaction struct {
	Version     uint32
	CellDeps    CellDepList
	HeaderDeps  HashList
	Inputs      CellInputList
	Outputs     CellOutputList
	OutputsData BytesList
	Witnesses   BytesList
}

// Hash is the transaction id. Witnesses are not part of it, so signing
// a transaction does not change its id.
func (tx *Transaction) Hash() Uint256 {
	buf := new(bytes.Buffer)
	tx.binWriteRaw(buf)
	return Blake2b256(buf.Bytes())
}

func (tx *Transaction) Size() int {
	return 4 + tx.CellDeps.Size() + tx.HeaderDeps.Size() + tx.Inputs.Size() +
		tx.Outputs.Size() + tx.OutputsData.Size() + tx.Witnesses.Size()
}

// SerializedSizeInBlock is the number of bytes the transaction adds to
// a block, including its offset slot. Fees are charged against it.
func (tx *Transaction) SerializedSizeInBlock() int {
	return tx.Size() + 4
}

func (tx *Transaction) IsCellbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutput == OutPoint{Index: 0xffffffff}
}

func (tx *Transaction) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tx.Version, r); err != nil {
		return err
	}
	if err = BinRead(&tx.CellDeps, r); err != nil {
		return err
	}
	if err = BinRead(&tx.HeaderDeps, r); err != nil {
		return err
	}
	if err = BinRead(&tx.Inputs, r); err != nil {
		return err
	}
	if err = BinRead(&tx.Outputs, r); err != nil {
		return err
	}
	if err = BinRead(&tx.OutputsData, r); err != nil {
		return err
	}
	if err = BinRead(&tx.Witnesses, r); err != nil {
		return err
	}
	return nil
}

func (tx *Transaction) BinWrite(w io.Writer) (err error) {
	if err = tx.binWriteRaw(w); err != nil {
		return err
	}
	return BinWrite(&tx.Witnesses, w)
}

func (tx *Transaction) binWriteRaw(w io.Writer) (err error) {
	if err = BinWrite(tx.Version, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.CellDeps, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.HeaderDeps, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.Inputs, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.Outputs, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.OutputsData, w); err != nil {
		return err
	}
	return nil
}

// TransactionView is a transaction together with its hash, computed
// once. Views are shared read-only, do not mutate the transaction.
type TransactionView struct {
	tx   *Transaction
	hash Uint256
}

func NewTransactionView(tx *Transaction) *TransactionView {
	return &TransactionView{tx: tx, hash: tx.Hash()}
}

// DecodeTransactionView decodes a serialized transaction.
func DecodeTransactionView(payload []byte) (*TransactionView, error) {
	var tx Transaction
	if err := Decode(&tx, payload); err != nil {
		return nil, err
	}
	return NewTransactionView(&tx), nil
}

func (v *TransactionView) Hash() Uint256 { return v.hash }

func (v *TransactionView) Transaction() *Transaction { return v.tx }

func (v *TransactionView) Outputs() CellOutputList { return v.tx.Outputs }

func (v *TransactionView) Inputs() CellInputList { return v.tx.Inputs }

func (v *TransactionView) OutPoints() []OutPoint {
	result := make([]OutPoint, len(v.tx.Outputs))
	for i := range v.tx.Outputs {
		result[i] = OutPoint{TxHash: v.hash, Index: uint32(i)}
	}
	return result
}

func (v *TransactionView) OutputsCapacity() (Capacity, bool) {
	var total Capacity
	for _, out := range v.tx.Outputs {
		var ok bool
		if total, ok = total.SafeAdd(out.Capacity); !ok {
			return 0, false
		}
	}
	return total, true
}

func (v *TransactionView) SerializedSizeInBlock() int {
	return v.tx.SerializedSizeInBlock()
}

type TransactionList []*Transaction

func (tl *TransactionList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var tx Transaction
		if err := BinRead(&tx, r); err != nil {
			return err
		}
		*tl = append(*tl, &tx)
		return nil
	})
}

func (tl *TransactionList) BinWrite(w io.Writer) error {
	return writeList(w, len(*tl), func(w io.Writer, i int) error {
		return BinWrite((*tl)[i], w)
	})
}

func (tl *TransactionList) Size() int {
	result := compactSizeSize(uint64(len(*tl)))
	for _, t := range *tl {
		result += t.Size()
	}
	return result
}
