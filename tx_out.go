package ingress

import (
	"fmt"
	"io"
)

// CellOutput is a cell: its capacity and the scripts guarding it.
// Type is nil when the output carries no type script.
type CellOutput struct {
	Capacity Capacity
	Lock     Script
	Type     *Script
}

func (out *CellOutput) Size() int {
	size := 8 + out.Lock.Size() + 1
	if out.Type != nil {
		size += out.Type.Size()
	}
	return size
}

func (out *CellOutput) BinRead(r io.Reader) (err error) {
	if err = BinRead(&out.Capacity, r); err != nil {
		return err
	}
	if err = BinRead(&out.Lock, r); err != nil {
		return err
	}
	var hasType byte
	if err = BinRead(&hasType, r); err != nil {
		return err
	}
	switch hasType {
	case 0:
		out.Type = nil
	case 1:
		var s Script
		if err = BinRead(&s, r); err != nil {
			return err
		}
		out.Type = &s
	default:
		return fmt.Errorf("Invalid type script flag: %d", hasType)
	}
	return nil
}

func (out *CellOutput) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(out.Capacity, w); err != nil {
		return err
	}
	if err = BinWrite(&out.Lock, w); err != nil {
		return err
	}
	if out.Type == nil {
		return BinWrite(byte(0), w)
	}
	if err = BinWrite(byte(1), w); err != nil {
		return err
	}
	return BinWrite(out.Type, w)
}

type CellOutputList []*CellOutput

func (outs *CellOutputList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var out CellOutput
		if err := BinRead(&out, r); err != nil {
			return err
		}
		*outs = append(*outs, &out)
		return nil
	})
}

func (outs *CellOutputList) BinWrite(w io.Writer) error {
	return writeList(w, len(*outs), func(w io.Writer, i int) error {
		return BinWrite((*outs)[i], w)
	})
}

func (outs *CellOutputList) Size() int {
	result := compactSizeSize(uint64(len(*outs)))
	for _, out := range *outs {
		result += out.Size()
	}
	return result
}
