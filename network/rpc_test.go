package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCClientCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "testuser", user)
		assert.Equal(t, "testpass", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "eth_blockNumber", req.Method)
		assert.NotNil(t, req.Params)

		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"0x64"`)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL, User: "testuser", Password: "testpass"})
	var height string
	err := client.Call(context.Background(), "eth_blockNumber", nil, &height)
	require.NoError(t, err)
	assert.Equal(t, "0x64", height)
	assert.Equal(t, server.URL, client.URL())
}

func TestRPCClientRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: 3, Message: "execution reverted", Data: json.RawMessage(`"0x08c379a0"`)},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	err := client.Call(context.Background(), "eth_call", []interface{}{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRPC)
	assert.Contains(t, err.Error(), "execution reverted")

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 3, rpcErr.Code)
	assert.JSONEq(t, `"0x08c379a0"`, string(rpcErr.Data))
}

func TestRPCClientErrorWithHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rpcResponse{Error: &RPCError{Code: -32600, Message: "invalid request"}})
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "eth_chainId", nil, nil)
	assert.ErrorIs(t, err, ErrRPC)
}

func TestRPCClientHTTPErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "eth_chainId", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "502")
}

func TestRPCClientConnectionError(t *testing.T) {
	client := NewRPCClient(RPCConfig{URL: "http://localhost:1"})
	var result int
	err := client.Call(context.Background(), "eth_chainId", nil, &result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Call(ctx, "eth_chainId", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRPCClientInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "eth_chainId", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRPCClientIDMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: 999, Result: json.RawMessage(`"0x1"`)})
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "eth_chainId", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRPCClientSequentialIDs(t *testing.T) {
	var ids []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.ID)
		_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"0x0"`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	for i := 0; i < 3; i++ {
		require.NoError(t, client.Call(context.Background(), "eth_chainId", nil, nil))
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}
