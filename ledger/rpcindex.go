package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/cidvault/network"
	"github.com/bitfsorg/cidvault/tx"
	"github.com/bitfsorg/cidvault/wallet"
)

// Defaults of the original deployment.
const (
	DefaultGasLimit = 300_000
)

// DefaultGasPrice is 10 gwei.
var DefaultGasPrice = big.NewInt(10_000_000_000)

// IndexConfig locates and describes the index contract.
type IndexConfig struct {
	ContractAddress string
	ABI             *abi.ABI
	AppendMethod    string   // empty uses DefaultAppendMethod
	ListMethod      string   // empty uses DefaultListMethod
	GasLimit        uint64   // zero uses DefaultGasLimit
	GasPrice        *big.Int // nil asks the node (eth_gasPrice)
	ChainID         *big.Int // nil asks the node (eth_chainId)
}

// resolved is a validated IndexConfig.
type resolved struct {
	contract   common.Address
	abi        *abi.ABI
	appendName string
	listName   string
	gasLimit   uint64
}

// validate checks the configuration. It runs on every call so an
// unconfigured index fails at its first operation rather than at startup.
func (c *IndexConfig) validate() (*resolved, error) {
	if c.ContractAddress == "" {
		return nil, fmt.Errorf("%w: contract address not configured", ErrLedgerConfig)
	}
	addr, err := wallet.ParseAddress(c.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: contract address: %w", ErrLedgerConfig, err)
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: contract address is zero", ErrLedgerConfig)
	}
	r := &resolved{
		contract:   addr,
		abi:        c.ABI,
		appendName: c.AppendMethod,
		listName:   c.ListMethod,
		gasLimit:   c.GasLimit,
	}
	if r.appendName == "" {
		r.appendName = DefaultAppendMethod
	}
	if r.listName == "" {
		r.listName = DefaultListMethod
	}
	if r.gasLimit == 0 {
		r.gasLimit = DefaultGasLimit
	}
	if err := checkMethods(r.abi, r.appendName, r.listName); err != nil {
		return nil, err
	}
	return r, nil
}

// RPCIndex implements Index against a deployed index contract.
// It holds configuration only; concurrent use is safe, but concurrent appends
// for the same wallet may read the same nonce and one of them will be rejected.
type RPCIndex struct {
	backend network.Backend
	cfg     IndexConfig
	log     *logrus.Logger
}

// Compile-time interface check.
var _ Index = (*RPCIndex)(nil)

// NewRPCIndex creates an index client. log may be nil.
func NewRPCIndex(backend network.Backend, cfg IndexConfig, log *logrus.Logger) *RPCIndex {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &RPCIndex{backend: backend, cfg: cfg, log: log}
}

// AppendCID submits a transaction calling the append method with cid.
func (x *RPCIndex) AppendCID(ctx context.Context, walletAddress, signingKey, cid string) (string, error) {
	// 1. Configuration.
	r, err := x.cfg.validate()
	if err != nil {
		return "", err
	}
	if x.backend == nil {
		return "", fmt.Errorf("%w: no RPC backend", ErrLedgerConfig)
	}

	// 2. Wallet and key.
	addr, err := parseWallet(walletAddress)
	if err != nil {
		return "", err
	}
	if cid == "" {
		return "", ErrEmptyCID
	}
	key, err := keyFor(addr, signingKey)
	if err != nil {
		return "", err
	}
	defer wallet.ZeroizeKey(key)

	// 3. Call data.
	data, err := r.abi.Pack(r.appendName, cid)
	if err != nil {
		return "", fmt.Errorf("%w: pack %s: %w", ErrLedgerConfig, r.appendName, err)
	}

	// 4. Nonce, chain id and gas price, fetched fresh for this call.
	nonce, err := x.backend.PendingNonceAt(ctx, addr)
	if err != nil {
		return "", submissionErr("nonce", err)
	}
	chainID := x.cfg.ChainID
	if chainID == nil {
		if chainID, err = x.backend.ChainID(ctx); err != nil {
			return "", submissionErr("chain id", err)
		}
	}
	gasPrice := x.cfg.GasPrice
	if gasPrice == nil {
		if gasPrice, err = x.backend.SuggestGasPrice(ctx); err != nil {
			return "", submissionErr("gas price", err)
		}
	}

	// 5. Build and sign.
	unsigned, err := tx.BuildAppendTx(&tx.AppendParams{
		Nonce:    nonce,
		To:       r.contract,
		GasLimit: r.gasLimit,
		GasPrice: gasPrice,
		ChainID:  chainID,
		Data:     data,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	signed, err := tx.SignTx(unsigned, chainID, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	raw, err := tx.EncodeTx(signed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	// 6. Submit. No wait for confirmation.
	hash, err := x.backend.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", submissionErr("send", err)
	}

	x.log.WithFields(logrus.Fields{
		"wallet": addr.Hex(),
		"cid":    cid,
		"nonce":  nonce,
		"tx":     hash.Hex(),
	}).Info("ledger: CID append submitted")

	return hash.Hex(), nil
}

// ListCIDs calls the list method for walletAddress.
func (x *RPCIndex) ListCIDs(ctx context.Context, walletAddress string) ([]string, error) {
	r, err := x.cfg.validate()
	if err != nil {
		return nil, err
	}
	if x.backend == nil {
		return nil, fmt.Errorf("%w: no RPC backend", ErrLedgerConfig)
	}
	addr, err := parseWallet(walletAddress)
	if err != nil {
		return nil, err
	}

	data, err := r.abi.Pack(r.listName, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", ErrLedgerConfig, r.listName, err)
	}
	out, err := x.backend.CallContract(ctx, r.contract, data)
	if err != nil {
		return nil, submissionErr("call", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, r.contract.Hex())
	}

	values, err := r.abi.Unpack(r.listName, out)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %w", ErrSubmission, r.listName, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values", ErrSubmission, r.listName, len(values))
	}
	cids, ok := values[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T", ErrSubmission, r.listName, values[0])
	}
	if cids == nil {
		cids = []string{}
	}

	x.log.WithFields(logrus.Fields{
		"wallet": addr.Hex(),
		"count":  len(cids),
	}).Debug("ledger: listed CIDs")

	return cids, nil
}

// submissionErr wraps a backend failure as ErrSubmission, decoding a
// Solidity revert reason when the node returned one.
func submissionErr(stage string, err error) error {
	var rpcErr *network.RPCError
	if errors.As(err, &rpcErr) && len(rpcErr.Data) > 0 {
		var data hexutil.Bytes
		if jsonErr := data.UnmarshalJSON(rpcErr.Data); jsonErr == nil {
			if reason, uerr := abi.UnpackRevert(data); uerr == nil {
				return fmt.Errorf("%w: %s: reverted: %s: %w", ErrSubmission, stage, reason, err)
			}
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrSubmission, stage, err)
}
