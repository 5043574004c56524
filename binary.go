package ingress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// Length prefixes use the Bitcoin CompactSize encoding, read and
// written through btcd's wire helpers. Protocol version 0 is passed
// everywhere, the encoding does not depend on it.
const (
	// maxBytesLen bounds a single length-prefixed byte string
	// (script args, outputs data, witnesses).
	maxBytesLen = 4 * 1024 * 1024

	// maxListLen bounds the element count of any list.
	maxListLen = 1 << 20
)

type BinReader interface {
	BinRead(io.Reader) error
}
type BinWriter interface {
	BinWrite(io.Writer) error
}

// BinRead will see if BinReader interface is provided, otherwise it
// falls back to LittleEndian binary.Read.
func BinRead(s interface{}, r io.Reader) error {
	if br, ok := s.(BinReader); ok {
		return br.BinRead(r)
	}
	return binary.Read(r, binary.LittleEndian, s)
}

// Similar to BinRead, check for BinWriter, defer to binary.Write.
func BinWrite(s interface{}, w io.Writer) error {
	if bw, ok := s.(BinWriter); ok {
		return bw.BinWrite(w)
	}
	return binary.Write(w, binary.LittleEndian, s)
}

// Decode reads exactly one value from b. Trailing bytes are an error.
func Decode(s interface{}, b []byte) error {
	r := bytes.NewReader(b)
	if err := BinRead(s, r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes", r.Len())
	}
	return nil
}

// Encode serializes s with BinWrite.
func Encode(s interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := BinWrite(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compactSizeSize(n uint64) int {
	return wire.VarIntSerializeSize(n)
}

func bytesSize(b []byte) int {
	return compactSizeSize(uint64(len(b))) + len(b)
}

func readBytes(r io.Reader, field string) ([]byte, error) {
	return wire.ReadVarBytes(r, 0, maxBytesLen, field)
}

func writeBytes(b []byte, w io.Writer) error {
	return wire.WriteVarBytes(w, 0, b)
}

func readList(r io.Reader, doRead func(io.Reader) error) error {
	size, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return err
	}
	if size > maxListLen {
		return fmt.Errorf("list too long: %d > %d", size, maxListLen)
	}

	for i := uint64(0); i < size; i++ {
		if err = doRead(r); err != nil {
			return err
		}
	}
	return nil
}

func writeList(w io.Writer, size int, doWrite func(io.Writer, int) error) error {
	err := wire.WriteVarInt(w, 0, uint64(size))
	if err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		if err = doWrite(w, i); err != nil {
			return err
		}
	}
	return nil
}

// BytesList is a list of opaque byte strings, used for outputs data
// and witnesses.
type BytesList [][]byte

func (bl *BytesList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		b, err := readBytes(r, "bytes")
		if err != nil {
			return err
		}
		*bl = append(*bl, b)
		return nil
	})
}

func (bl *BytesList) BinWrite(w io.Writer) error {
	return writeList(w, len(*bl), func(w io.Writer, i int) error {
		return writeBytes((*bl)[i], w)
	})
}

func (bl *BytesList) Size() int {
	result := compactSizeSize(uint64(len(*bl)))
	for _, b := range *bl {
		result += bytesSize(b)
	}
	return result
}
