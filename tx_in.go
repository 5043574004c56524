package ingress

import (
	"fmt"
	"io"
)

// OutPoint names one output of an earlier transaction.
type OutPoint struct {
	TxHash Uint256
	Index  uint32
}

func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxHash, op.Index)
}

// CellInput spends the cell at PreviousOutput once Since is satisfied.
type CellInput struct {
	Since          Since
	PreviousOutput OutPoint
}

func (in *CellInput) Size() int {
	return SinceLen + 32 + 4
}

func (in *CellInput) BinRead(r io.Reader) (err error) {
	if err = BinRead(&in.Since, r); err != nil {
		return err
	}
	if err = BinRead(&in.PreviousOutput, r); err != nil {
		return err
	}
	return nil
}

func (in *CellInput) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(in.Since, w); err != nil {
		return err
	}
	if err = BinWrite(in.PreviousOutput, w); err != nil {
		return err
	}
	return nil
}

type CellInputList []*CellInput

func (ins *CellInputList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var in CellInput
		if err := BinRead(&in, r); err != nil {
			return err
		}
		*ins = append(*ins, &in)
		return nil
	})
}

func (ins *CellInputList) BinWrite(w io.Writer) error {
	return writeList(w, len(*ins), func(w io.Writer, i int) error {
		return BinWrite((*ins)[i], w)
	})
}

func (ins *CellInputList) Size() int {
	result := compactSizeSize(uint64(len(*ins)))
	for _, in := range *ins {
		result += in.Size()
	}
	return result
}

type DepType byte

const (
	DepTypeCode     DepType = 0
	DepTypeDepGroup DepType = 1
)

// CellDep references a cell whose data a script may load.
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

func (d *CellDep) BinRead(r io.Reader) (err error) {
	if err = BinRead(&d.OutPoint, r); err != nil {
		return err
	}
	if err = BinRead(&d.DepType, r); err != nil {
		return err
	}
	if d.DepType > DepTypeDepGroup {
		return fmt.Errorf("Invalid dep type: %d", d.DepType)
	}
	return nil
}

func (d *CellDep) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(d.OutPoint, w); err != nil {
		return err
	}
	return BinWrite(d.DepType, w)
}

type CellDepList []CellDep

func (deps *CellDepList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var d CellDep
		if err := BinRead(&d, r); err != nil {
			return err
		}
		*deps = append(*deps, d)
		return nil
	})
}

func (deps *CellDepList) BinWrite(w io.Writer) error {
	return writeList(w, len(*deps), func(w io.Writer, i int) error {
		return BinWrite(&(*deps)[i], w)
	})
}

func (deps *CellDepList) Size() int {
	return compactSizeSize(uint64(len(*deps))) + len(*deps)*(32+4+1)
}

type HashList []Uint256

func (hl *HashList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var h Uint256
		if err := BinRead(&h, r); err != nil {
			return err
		}
		*hl = append(*hl, h)
		return nil
	})
}

func (hl *HashList) BinWrite(w io.Writer) error {
	return writeList(w, len(*hl), func(w io.Writer, i int) error {
		return BinWrite((*hl)[i], w)
	})
}

func (hl *HashList) Size() int {
	return compactSizeSize(uint64(len(*hl))) + len(*hl)*32
}
