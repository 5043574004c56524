package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blkchain/ingress"
)

// Uint64 is a quantity, encoded in JSON as a 0x prefixed hex string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", uint64(u)))
}

func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("quantity %q lacks 0x prefix", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}

type TxPoolInfo struct {
	Pending          Uint64 `json:"pending"`
	Proposed         Uint64 `json:"proposed"`
	Orphan           Uint64 `json:"orphan"`
	TotalTxSize      Uint64 `json:"total_tx_size"`
	TotalTxCycles    Uint64 `json:"total_tx_cycles"`
	LastTxsUpdatedAt Uint64 `json:"last_txs_updated_at"`
}

// LocalTx is a journal entry. AcceptedAt is in milliseconds since the
// unix epoch.
type LocalTx struct {
	Hash             ingress.Uint256 `json:"hash"`
	Size             Uint64          `json:"size"`
	OutputsValidator string          `json:"outputs_validator"`
	AcceptedAt       Uint64          `json:"accepted_at"`
}
