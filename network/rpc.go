// Package network is the JSON-RPC transport to an EVM ledger node
// (BitTorrent Chain or any Ethereum-compatible endpoint).
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// RPCClient is a JSON-RPC 2.0 client for communicating with EVM nodes.
// All high-level Backend methods are built on top of the Call method.
// It sets no request timeout of its own; deadlines come from the caller's context.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// rpcRequest represents a JSON-RPC 2.0 request payload.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response payload.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// NewRPCClient creates a new JSON-RPC client with the given configuration.
// HTTP Basic Auth is used when User is non-empty (some hosted endpoints need it).
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// URL returns the endpoint the client talks to.
func (c *RPCClient) URL() string {
	return c.url
}

// Call invokes a JSON-RPC method and deserializes the result into result.
//
// If params is nil, an empty params array is sent. If result is nil, the
// response result is discarded.
//
// Call returns ErrConnectionFailed if the HTTP request fails or the status is
// not 2xx without a JSON-RPC body, ErrInvalidResponse if the response cannot be
// decoded, and ErrRPC wrapping an *RPCError for server-side errors.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrConnectionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(respBody, 256))
		}
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	// Some nodes answer errors with a non-2xx status and no id.
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s: %w", ErrRPC, method, rpcResp.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, resp.StatusCode)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// maxResponseSize caps a single JSON-RPC response (32 MiB).
const maxResponseSize = 32 << 20

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
