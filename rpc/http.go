package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/blkchain/ingress"
	"github.com/blkchain/ingress/policy"
	"github.com/btcsuite/btcd/btcjson"
	fn "github.com/lightningnetwork/lnd/fn/v2"
)

const maxRequestSize = 8 * 1024 * 1024

// Handler serves PoolRPC as JSON-RPC 2.0 over HTTP POST.
type Handler struct {
	pool *PoolRPC
}

func NewHandler(pool *PoolRPC) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req btcjson.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		writeResponse(w, nil, nil, btcjson.ErrRPCParse)
		return
	}

	// Only string, number and null ids can be echoed back.
	if !btcjson.IsValidIDType(req.ID) {
		writeResponse(w, nil, nil, btcjson.ErrRPCInvalidRequest)
		return
	}
	if req.Method == "" {
		writeResponse(w, req.ID, nil, btcjson.ErrRPCInvalidRequest)
		return
	}

	result, rpcErr := h.dispatch(r.Context(), &req)
	writeResponse(w, req.ID, result, rpcErr)
}

func (h *Handler) dispatch(ctx context.Context, req *btcjson.Request) (interface{}, *btcjson.RPCError) {
	switch req.Method {
	case "send_transaction":
		payload, mode, rpcErr := parseSendTransactionParams(req.Params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		hash, err := h.pool.SendTransaction(ctx, payload, mode)
		if err != nil {
			return nil, toRPCError(err)
		}
		return hash, nil

	case "tx_pool_info":
		info, err := h.pool.TxPoolInfo(ctx)
		if err != nil {
			return nil, toRPCError(err)
		}
		return info, nil

	case "get_local_transactions":
		limit := Uint64(DefaultLocalTxsLimit)
		if len(req.Params) > 1 {
			return nil, invalidParams("expected at most 1 param")
		}
		if len(req.Params) == 1 && !isNull(req.Params[0]) {
			if err := json.Unmarshal(req.Params[0], &limit); err != nil {
				return nil, invalidParams(err.Error())
			}
		}
		txs, err := h.pool.LocalTransactions(ctx, int(limit))
		if err != nil {
			return nil, toRPCError(err)
		}
		return txs, nil

	case "get_local_transaction":
		if len(req.Params) != 1 {
			return nil, invalidParams("expected 1 param")
		}
		var hash ingress.Uint256
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, invalidParams(err.Error())
		}
		tx, err := h.pool.LocalTransaction(ctx, hash)
		if err != nil {
			return nil, toRPCError(err)
		}
		return tx, nil

	default:
		return nil, btcjson.ErrRPCMethodNotFound
	}
}

func invalidParams(msg string) *btcjson.RPCError {
	return btcjson.NewRPCError(btcjson.ErrRPCInvalidParams.Code,
		btcjson.ErrRPCInvalidParams.Message+": "+msg)
}

// parseSendTransactionParams reads [tx, validator?] where tx is the hex
// encoded serialized transaction and validator is "default",
// "passthrough" or null.
func parseSendTransactionParams(params []json.RawMessage) ([]byte, fn.Option[policy.OutputsValidator], *btcjson.RPCError) {
	none := fn.None[policy.OutputsValidator]()
	if len(params) < 1 || len(params) > 2 {
		return nil, none, invalidParams("expected 1 or 2 params")
	}

	var txHex string
	if err := json.Unmarshal(params[0], &txHex); err != nil {
		return nil, none, invalidParams("transaction must be a hex string")
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(txHex, "0x"))
	if err != nil {
		return nil, none, invalidParams(err.Error())
	}

	if len(params) == 1 || isNull(params[1]) {
		return payload, none, nil
	}
	var mode policy.OutputsValidator
	if err := json.Unmarshal(params[1], &mode); err != nil {
		return nil, none, invalidParams(err.Error())
	}
	return payload, fn.Some(mode), nil
}

func isNull(param json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(param), []byte("null"))
}

func toRPCError(err error) *btcjson.RPCError {
	if e, ok := err.(*Error); ok {
		return e.RPCError()
	}
	log.Errorf("Unexpected RPC error: %v", err)
	return btcjson.ErrRPCInternal
}

func writeResponse(w http.ResponseWriter, id interface{}, result interface{},
	rpcErr *btcjson.RPCError) {

	var marshalled []byte
	if rpcErr == nil {
		var err error
		if marshalled, err = json.Marshal(result); err != nil {
			log.Errorf("Unable to marshal RPC result: %v", err)
			rpcErr = btcjson.ErrRPCInternal
			marshalled = nil
		}
	}

	resp, err := btcjson.NewResponse(btcjson.RpcVersion2, id, marshalled, rpcErr)
	if err != nil {
		log.Errorf("Unable to build RPC response: %v", err)
		http.Error(w, btcjson.ErrRPCInternal.Message, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warnf("Unable to write RPC response: %v", err)
	}
}
