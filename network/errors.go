package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrRPC indicates the node answered with a JSON-RPC error object.
	// The *RPCError is retrievable with errors.As.
	ErrRPC = errors.New("network: rpc error")

	// ErrBroadcastRejected indicates the node rejected a raw transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrTxNotFound indicates the transaction is unknown or not yet mined.
	ErrTxNotFound = errors.New("network: transaction not found")
)

// RPCError is a JSON-RPC 2.0 error object. For reverted eth_call requests
// Data carries the ABI-encoded revert reason.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
