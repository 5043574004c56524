package synchronizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/blkchain/ingress"
)

type MessageType byte

const (
	MsgGetHeaders  MessageType = 0
	MsgSendHeaders MessageType = 1
	MsgGetBlocks   MessageType = 2
	MsgSendBlock   MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MsgGetHeaders:
		return "GetHeaders"
	case MsgSendHeaders:
		return "SendHeaders"
	case MsgGetBlocks:
		return "GetBlocks"
	case MsgSendBlock:
		return "SendBlock"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(t))
	}
}

// Message is the body of a sync protocol message. On the wire it is
// preceded by its one byte MessageType.
type Message interface {
	ingress.BinReader
	ingress.BinWriter

	MsgType() MessageType
}

// GetBlocks asks for full blocks. Hashes are expected to be ordered
// from highest to lowest block number.
type GetBlocks struct {
	BlockHashes ingress.HashList
}

func (m *GetBlocks) MsgType() MessageType { return MsgGetBlocks }

func (m *GetBlocks) BinRead(r io.Reader) error {
	return ingress.BinRead(&m.BlockHashes, r)
}

func (m *GetBlocks) BinWrite(w io.Writer) error {
	return ingress.BinWrite(&m.BlockHashes, w)
}

type SendBlock struct {
	Block *ingress.Block
}

func (m *SendBlock) MsgType() MessageType { return MsgSendBlock }

func (m *SendBlock) BinRead(r io.Reader) error {
	m.Block = new(ingress.Block)
	return ingress.BinRead(m.Block, r)
}

func (m *SendBlock) BinWrite(w io.Writer) error {
	return ingress.BinWrite(m.Block, w)
}

func EncodeMessage(m Message) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(m.MsgType()))
	if err := m.BinWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrUnhandledMessage is returned for well known messages this node
// leaves to other handlers.
var ErrUnhandledMessage = errors.New("unhandled message")

// DecodeMessage decodes a message this node knows how to handle.
// Headers messages yield ErrUnhandledMessage.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	var m Message
	switch t := MessageType(data[0]); t {
	case MsgGetBlocks:
		m = new(GetBlocks)
	case MsgSendBlock:
		m = new(SendBlock)
	case MsgGetHeaders, MsgSendHeaders:
		return nil, fmt.Errorf("%w: %v", ErrUnhandledMessage, t)
	default:
		return nil, fmt.Errorf("unsupported message type %v", t)
	}
	if err := ingress.Decode(m, data[1:]); err != nil {
		return nil, fmt.Errorf("decoding %v: %w", m.MsgType(), err)
	}
	return m, nil
}
