package chain

import "strings"

// BlockStatus records how far a block has progressed through
// verification. Each stage includes the bits of the stages before it.
type BlockStatus uint32

const (
	BlockStatusUnknown BlockStatus = 0

	BlockStatusHeaderValid   BlockStatus = 1
	BlockStatusBlockReceived BlockStatus = BlockStatusHeaderValid | 1<<1
	BlockStatusBlockStored   BlockStatus = BlockStatusHeaderValid | BlockStatusBlockReceived | 1<<2
	BlockStatusBlockValid    BlockStatus = BlockStatusHeaderValid | BlockStatusBlockReceived | BlockStatusBlockStored | 1<<3

	BlockStatusBlockInvalid BlockStatus = 1 << 12
)

// Contains reports whether every bit of other is set in s.
func (s BlockStatus) Contains(other BlockStatus) bool {
	return s&other == other
}

func (s BlockStatus) String() string {
	if s == BlockStatusUnknown {
		return "UNKNOWN"
	}
	var names []string
	if s.Contains(BlockStatusBlockInvalid) {
		names = append(names, "BLOCK_INVALID")
	}
	switch {
	case s.Contains(BlockStatusBlockValid):
		names = append(names, "BLOCK_VALID")
	case s.Contains(BlockStatusBlockStored):
		names = append(names, "BLOCK_STORED")
	case s.Contains(BlockStatusBlockReceived):
		names = append(names, "BLOCK_RECEIVED")
	case s.Contains(BlockStatusHeaderValid):
		names = append(names, "HEADER_VALID")
	}
	return strings.Join(names, "|")
}
