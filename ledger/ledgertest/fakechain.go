// Package ledgertest provides an in-memory EVM JSON-RPC node hosting the CID
// index contract, for tests that exercise the real RPC client end to end.
package ledgertest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractAddress is where the fake chain hosts the index contract.
var ContractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// FakeChain is a JSON-RPC server that validates signed transactions against
// per-account nonces and applies storeCID/getCIDs calls to an in-memory map.
// Submitted transactions are mined immediately.
type FakeChain struct {
	Server  *httptest.Server
	ChainID *big.Int

	abi *abi.ABI

	mu       sync.Mutex
	nonces   map[common.Address]uint64
	cids     map[common.Address][]string
	receipts map[common.Hash]uint64 // tx hash -> block number
	block    uint64

	// FailMethods makes the named RPC methods answer with an error object.
	FailMethods map[string]string

	// RevertCID makes storeCID revert with a reason when called with this value.
	RevertCID string
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// NewFakeChain starts a fake chain hosting a contract with the given ABI.
// Call Close when done.
func NewFakeChain(contractABI *abi.ABI, chainID int64) *FakeChain {
	fc := &FakeChain{
		ChainID:     big.NewInt(chainID),
		abi:         contractABI,
		nonces:      make(map[common.Address]uint64),
		cids:        make(map[common.Address][]string),
		receipts:    make(map[common.Hash]uint64),
		FailMethods: make(map[string]string),
	}
	fc.Server = httptest.NewServer(http.HandlerFunc(fc.serve))
	return fc
}

// URL returns the JSON-RPC endpoint.
func (fc *FakeChain) URL() string { return fc.Server.URL }

// Close shuts the server down.
func (fc *FakeChain) Close() { fc.Server.Close() }

// CIDs returns the recorded list for addr.
func (fc *FakeChain) CIDs(addr common.Address) []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.cids[addr]...)
}

// Nonce returns the next nonce of addr.
func (fc *FakeChain) Nonce(addr common.Address) uint64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.nonces[addr]
}

// RevertOn makes storeCID(cid) revert.
func (fc *FakeChain) RevertOn(cid string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.RevertCID = cid
}

// Fail makes method answer with an RPC error carrying msg.
func (fc *FakeChain) Fail(method, msg string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.FailMethods[method] = msg
}

func (fc *FakeChain) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	result, e := fc.dispatch(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if e != nil {
		resp["error"] = e
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (fc *FakeChain) dispatch(req rpcRequest) (interface{}, *rpcErr) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if msg, ok := fc.FailMethods[req.Method]; ok {
		return nil, &rpcErr{Code: -32000, Message: msg}
	}

	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeBig(fc.ChainID), nil
	case "eth_gasPrice":
		return hexutil.EncodeBig(big.NewInt(1_000_000_000)), nil
	case "eth_getTransactionCount":
		var addr common.Address
		if len(req.Params) < 1 || json.Unmarshal(req.Params[0], &addr) != nil {
			return nil, &rpcErr{Code: -32602, Message: "invalid address"}
		}
		return hexutil.EncodeUint64(fc.nonces[addr]), nil
	case "eth_sendRawTransaction":
		return fc.sendRaw(req.Params)
	case "eth_call":
		return fc.call(req.Params)
	case "eth_getTransactionReceipt":
		var h common.Hash
		if len(req.Params) < 1 || json.Unmarshal(req.Params[0], &h) != nil {
			return nil, &rpcErr{Code: -32602, Message: "invalid hash"}
		}
		block, ok := fc.receipts[h]
		if !ok {
			return nil, nil
		}
		return map[string]string{
			"transactionHash": h.Hex(),
			"blockNumber":     hexutil.EncodeUint64(block),
			"gasUsed":         hexutil.EncodeUint64(50_000),
			"status":          "0x1",
		}, nil
	default:
		return nil, &rpcErr{Code: -32601, Message: "method not found: " + req.Method}
	}
}

func (fc *FakeChain) sendRaw(params []json.RawMessage) (interface{}, *rpcErr) {
	var raw hexutil.Bytes
	if len(params) < 1 || json.Unmarshal(params[0], &raw) != nil {
		return nil, &rpcErr{Code: -32602, Message: "invalid raw transaction"}
	}
	var t types.Transaction
	if err := t.UnmarshalBinary(raw); err != nil {
		return nil, &rpcErr{Code: -32602, Message: "rlp: " + err.Error()}
	}
	from, err := types.Sender(types.NewEIP155Signer(fc.ChainID), &t)
	if err != nil {
		return nil, &rpcErr{Code: -32000, Message: "invalid sender: " + err.Error()}
	}
	if t.To() == nil || *t.To() != ContractAddress {
		return nil, &rpcErr{Code: -32000, Message: "unknown contract"}
	}
	if want := fc.nonces[from]; t.Nonce() != want {
		return nil, &rpcErr{Code: -32000, Message: fmt.Sprintf("nonce too low: have %d, want %d", t.Nonce(), want)}
	}

	method, args, e := fc.decode(t.Data())
	if e != nil {
		return nil, e
	}
	if method.Name != "storeCID" {
		return nil, &rpcErr{Code: 3, Message: "execution reverted"}
	}
	cid, _ := args[0].(string)
	if cid == "" {
		return nil, revert("empty CID")
	}
	if fc.RevertCID != "" && cid == fc.RevertCID {
		return nil, revert("CID rejected")
	}

	fc.nonces[from]++
	fc.cids[from] = append(fc.cids[from], cid)
	fc.block++
	fc.receipts[t.Hash()] = fc.block
	return t.Hash().Hex(), nil
}

func (fc *FakeChain) call(params []json.RawMessage) (interface{}, *rpcErr) {
	var args struct {
		To   common.Address `json:"to"`
		Data hexutil.Bytes  `json:"data"`
	}
	if len(params) < 1 || json.Unmarshal(params[0], &args) != nil {
		return nil, &rpcErr{Code: -32602, Message: "invalid call"}
	}
	if args.To != ContractAddress {
		return "0x", nil // no code
	}
	method, in, e := fc.decode(args.Data)
	if e != nil {
		return nil, e
	}
	if method.Name != "getCIDs" {
		return nil, &rpcErr{Code: 3, Message: "execution reverted"}
	}
	addr, _ := in[0].(common.Address)
	list := fc.cids[addr]
	if list == nil {
		list = []string{}
	}
	out, err := method.Outputs.Pack(list)
	if err != nil {
		return nil, &rpcErr{Code: -32000, Message: err.Error()}
	}
	return hexutil.Encode(out), nil
}

func (fc *FakeChain) decode(data []byte) (*abi.Method, []interface{}, *rpcErr) {
	if len(data) < 4 {
		return nil, nil, &rpcErr{Code: 3, Message: "execution reverted"}
	}
	method, err := fc.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, &rpcErr{Code: 3, Message: "execution reverted: unknown selector"}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) != 1 {
		return nil, nil, &rpcErr{Code: 3, Message: "execution reverted: bad arguments"}
	}
	return method, args, nil
}

// revert builds an execution-reverted error carrying Error(string) data.
func revert(reason string) *rpcErr {
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	strTy, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: strTy}}.Pack(reason)
	return &rpcErr{
		Code:    3,
		Message: "execution reverted: " + reason,
		Data:    hexutil.Encode(append(selector, packed...)),
	}
}
