package rpc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
)

type ErrorKind int

const (
	// ErrorKindInvalid is a request the node refuses: malformed input
	// or a transaction rejected by policy or by the pool.
	ErrorKindInvalid ErrorKind = iota

	// ErrorKindInternal is a failure on the node's side. Details are
	// logged, never returned.
	ErrorKindInternal
)

// ErrRPCInvalid is the JSON-RPC code of ErrorKindInvalid errors. The
// standard codes come from btcjson.
const ErrRPCInvalid btcjson.RPCErrorCode = -3

// Error is the error type returned by every RPC method.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Code() btcjson.RPCErrorCode {
	if e.Kind == ErrorKindInternal {
		return btcjson.ErrRPCInternal.Code
	}
	return ErrRPCInvalid
}

// RPCError converts e for a JSON-RPC response.
func (e *Error) RPCError() *btcjson.RPCError {
	return btcjson.NewRPCError(e.Code(), e.Message)
}

func invalidf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorKindInvalid, Message: fmt.Sprintf(format, args...)}
}

func internalError() *Error {
	return &Error{Kind: ErrorKindInternal, Message: btcjson.ErrRPCInternal.Message}
}
