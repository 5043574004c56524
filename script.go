package ingress

import (
	"fmt"
	"io"
)

type ScriptHashType byte

const (
	// HashTypeData matches CodeHash against the data hash of a dep cell.
	HashTypeData ScriptHashType = 0

	// HashTypeType matches CodeHash against the type script hash of a
	// dep cell, which survives code upgrades.
	HashTypeType ScriptHashType = 1
)

func (t ScriptHashType) String() string {
	switch t {
	case HashTypeData:
		return "data"
	case HashTypeType:
		return "type"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Script is a lock or type script: the code to run, how to find it,
// and its arguments.
type Script struct {
	CodeHash Uint256
	HashType ScriptHashType
	Args     []byte
}

func (s *Script) IsHashTypeType() bool {
	return s.HashType == HashTypeType
}

func (s *Script) Hash() Uint256 {
	buf, _ := Encode(s)
	return Blake2b256(buf)
}

func (s *Script) Size() int {
	return 32 + 1 + bytesSize(s.Args)
}

func (s *Script) BinRead(r io.Reader) (err error) {
	if err = BinRead(&s.CodeHash, r); err != nil {
		return err
	}
	if err = BinRead(&s.HashType, r); err != nil {
		return err
	}
	if s.HashType != HashTypeData && s.HashType != HashTypeType {
		return fmt.Errorf("Invalid script hash type: %d", s.HashType)
	}
	if s.Args, err = readBytes(r, "script args"); err != nil {
		return err
	}
	return nil
}

func (s *Script) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(s.CodeHash, w); err != nil {
		return err
	}
	if err = BinWrite(s.HashType, w); err != nil {
		return err
	}
	return writeBytes(s.Args, w)
}
