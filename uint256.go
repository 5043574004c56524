package ingress

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Uint256 is a 32 byte digest: transaction and block hashes as well as
// script code hashes. Values are printed in byte order with a 0x prefix.
type Uint256 [32]byte

func (u Uint256) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

func (u Uint256) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Uint256) UnmarshalText(text []byte) error {
	v, err := Uint256FromString(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// sql.Scanner so that pq can scan these values from postgres
func (u *Uint256) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("Unexpected type: %T", value)
	}
	if len(b) != len(u) {
		return fmt.Errorf("Unexpected length: %d", len(b))
	}
	copy(u[:], b)
	return nil
}

// driver.Valuer, the reverse of Scan.
func (u Uint256) Value() (driver.Value, error) {
	return u[:], nil
}

// Blake2b256 is the content hash used for every hash-addressed
// structure in this package.
func Blake2b256(b []byte) Uint256 {
	return blake2b.Sum256(b)
}

func Uint256FromBytes(from []byte) Uint256 {
	var result Uint256
	copy(result[:], from)
	return result
}

// Uint256FromString parses 64 hex digits, with or without the 0x prefix.
func Uint256FromString(from string) (Uint256, error) {
	from = strings.TrimPrefix(from, "0x")
	if len(from) != 32*2 {
		return Uint256{}, fmt.Errorf("Incorrect length.")
	}
	b, err := hex.DecodeString(from)
	if err != nil {
		return Uint256{}, err
	}
	return Uint256FromBytes(b), nil
}
