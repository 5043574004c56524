package chain

import (
	"bytes"
	"encoding/binary"

	"github.com/blkchain/ingress"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var ErrNotFound = errors.New("chain store resource not found")

// Key prefixes.
const (
	prefixBlock  = 'b'
	prefixStatus = 's'
	prefixCell   = 'c'
)

func blockKey(hash ingress.Uint256) []byte {
	return append([]byte{prefixBlock}, hash[:]...)
}

func statusKey(hash ingress.Uint256) []byte {
	return append([]byte{prefixStatus}, hash[:]...)
}

func cellKey(op ingress.OutPoint) []byte {
	key := make([]byte, 1+32+4)
	key[0] = prefixCell
	copy(key[1:], op.TxHash[:])
	binary.LittleEndian.PutUint32(key[33:], op.Index)
	return key
}

// getter is satisfied by both *leveldb.DB and *leveldb.Snapshot.
type getter interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
}

// Store keeps blocks, their verification status and the set of live
// cells created by stored blocks.
type Store struct {
	db *leveldb.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening chain store at %s", path)
	}
	return NewStore(db), nil
}

func NewStore(db *leveldb.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBlock stores b with the given status and applies its
// transactions to the live cell set.
func (s *Store) InsertBlock(b *ingress.Block, status BlockStatus) error {
	buf, err := ingress.Encode(b)
	if err != nil {
		return errors.Wrap(err, "encoding block")
	}
	hash := b.Hash()

	batch := new(leveldb.Batch)
	batch.Put(blockKey(hash), buf)
	batch.Put(statusKey(hash), encodeStatus(status))

	for _, tx := range b.Transactions {
		if !tx.IsCellbase() {
			for _, in := range tx.Inputs {
				batch.Delete(cellKey(in.PreviousOutput))
			}
		}
		txHash := tx.Hash()
		for i, out := range tx.Outputs {
			cell, err := ingress.Encode(out)
			if err != nil {
				return errors.Wrapf(err, "encoding output %d of %v", i, txHash)
			}
			batch.Put(cellKey(ingress.OutPoint{TxHash: txHash, Index: uint32(i)}), cell)
		}
	}

	if err := s.db.Write(batch, nil); err != nil {
		return errors.Wrapf(err, "writing block %v", hash)
	}
	log.Debugf("Stored block %d %v as %v", b.Number(), hash, status)
	return nil
}

func (s *Store) SetBlockStatus(hash ingress.Uint256, status BlockStatus) error {
	if err := s.db.Put(statusKey(hash), encodeStatus(status), nil); err != nil {
		return errors.Wrapf(err, "setting status of %v", hash)
	}
	return nil
}

func (s *Store) BlockStatus(hash ingress.Uint256) (BlockStatus, error) {
	return getBlockStatus(s.db, hash)
}

func (s *Store) Block(hash ingress.Uint256) (*ingress.Block, error) {
	return getBlock(s.db, hash)
}

// LiveCell returns the unspent output at op, if any.
func (s *Store) LiveCell(op ingress.OutPoint) (*ingress.CellOutput, bool, error) {
	return getLiveCell(s.db, op)
}

func encodeStatus(status BlockStatus) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(status))
}

func getBlockStatus(g getter, hash ingress.Uint256) (BlockStatus, error) {
	v, err := g.Get(statusKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return BlockStatusUnknown, nil
	}
	if err != nil {
		return BlockStatusUnknown, errors.Wrapf(err, "getting status of %v", hash)
	}
	if len(v) != 4 {
		return BlockStatusUnknown, errors.Errorf("corrupt status of %v", hash)
	}
	return BlockStatus(binary.LittleEndian.Uint32(v)), nil
}

func getBlock(g getter, hash ingress.Uint256) (*ingress.Block, error) {
	v, err := g.Get(blockKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting block %v", hash)
	}
	var b ingress.Block
	if err := ingress.BinRead(&b, bytes.NewReader(v)); err != nil {
		return nil, errors.Wrapf(err, "decoding block %v", hash)
	}
	return &b, nil
}

func getLiveCell(g getter, op ingress.OutPoint) (*ingress.CellOutput, bool, error) {
	v, err := g.Get(cellKey(op), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "getting cell %v", op)
	}
	var cell ingress.CellOutput
	if err := ingress.Decode(&cell, v); err != nil {
		return nil, false, errors.Wrapf(err, "decoding cell %v", op)
	}
	return &cell, true, nil
}
