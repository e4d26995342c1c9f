// Package vault stores data privately for a wallet and reads it back.
//
// Store seals the plaintext for the recipient, uploads the sealed blob to the
// content store and appends the resulting CID to the wallet's ledger index.
// Retrieve walks the wallet's CIDs in ledger order, downloading and opening
// each one. Both run their stages strictly in sequence and stop at the first
// failure.
package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/cidvault/ledger"
	"github.com/bitfsorg/cidvault/sealbox"
	"github.com/bitfsorg/cidvault/storage"
	"github.com/bitfsorg/cidvault/wallet"
)

// Vault ties a content store to a ledger index. It holds configuration only
// and is safe for concurrent use.
type Vault struct {
	Content storage.ContentStore
	Index   ledger.Index
	Logger  *logrus.Logger

	// SerializeWrites makes appends for the same wallet take turns, so one
	// process never races itself on the account nonce. Off by default.
	SerializeWrites bool

	// LockDir, when set with SerializeWrites, extends the per-wallet lock to
	// other processes sharing the directory.
	LockDir string

	locksOnce sync.Once
	locks     *walletLocks
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. The default discards below warning level.
func WithLogger(log *logrus.Logger) Option {
	return func(v *Vault) { v.Logger = log }
}

// WithSerializedWrites turns on per-wallet append locking. lockDir may be
// empty for in-process locking only.
func WithSerializedWrites(lockDir string) Option {
	return func(v *Vault) {
		v.SerializeWrites = true
		v.LockDir = lockDir
	}
}

// New creates a Vault over content and index.
func New(content storage.ContentStore, index ledger.Index, opts ...Option) *Vault {
	v := &Vault{Content: content, Index: index}
	for _, opt := range opts {
		opt(v)
	}
	if v.Logger == nil {
		v.Logger = logrus.New()
		v.Logger.SetLevel(logrus.WarnLevel)
	}
	return v
}

// StoreRequest is the input to Store.
type StoreRequest struct {
	WalletAddress      string
	SigningKey         string // hex secp256k1 key controlling WalletAddress
	RecipientPublicKey string // base64 X25519 public key
	Plaintext          []byte
}

// StoreResult identifies what Store produced.
type StoreResult struct {
	CID  string `json:"cid" yaml:"cid"`
	TxID string `json:"tx_id" yaml:"tx_id"`
}

// RetrieveRequest is the input to Retrieve.
type RetrieveRequest struct {
	WalletAddress string
	PrivateKey    string // base64 X25519 private key
}

// Item is one opened entry of a wallet, in ledger order.
type Item struct {
	CID       string `json:"cid" yaml:"cid"`
	Plaintext []byte `json:"plaintext" yaml:"plaintext"`
}

// checkWallet rejects a missing or malformed wallet address.
func checkWallet(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: wallet address is required", ErrInvalidRequest)
	}
	if _, err := wallet.ParseAddress(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func (r *StoreRequest) validate() error {
	if err := checkWallet(r.WalletAddress); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(r.SigningKey) == "":
		return fmt.Errorf("%w: signing key is required", ErrInvalidRequest)
	case strings.TrimSpace(r.RecipientPublicKey) == "":
		return fmt.Errorf("%w: recipient public key is required", ErrInvalidRequest)
	}
	return nil
}

func (r *RetrieveRequest) validate() error {
	if err := checkWallet(r.WalletAddress); err != nil {
		return err
	}
	if strings.TrimSpace(r.PrivateKey) == "" {
		return fmt.Errorf("%w: private key is required", ErrInvalidRequest)
	}
	return nil
}

func (v *Vault) log() *logrus.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return logrus.StandardLogger()
}

func (v *Vault) ready() error {
	if v == nil || v.Content == nil || v.Index == nil {
		return fmt.Errorf("%w: vault is not configured", ErrInternal)
	}
	return nil
}

// Store seals req.Plaintext for req.RecipientPublicKey, uploads it and
// records the CID for req.WalletAddress. Storing the same plaintext twice
// yields two ledger entries.
//
// When the upload succeeds but the ledger append fails, the blob stays in the
// content store unreferenced. Its CID is logged and the append error is
// returned.
func (v *Vault) Store(ctx context.Context, req StoreRequest) (*StoreResult, error) {
	if err := v.ready(); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	// 1. Seal.
	pub, err := sealbox.ParsePublicKeyBase64(req.RecipientPublicKey)
	if err != nil {
		return nil, err
	}
	blob, err := sealbox.Seal(pub, req.Plaintext)
	if err != nil {
		return nil, err
	}

	// 2. Upload the base64 text form.
	cid, err := v.Content.Put(ctx, sealbox.EncodeBlob(blob))
	if err != nil {
		return nil, err
	}

	// 3. Append to the ledger.
	txID, err := v.append(ctx, req.WalletAddress, req.SigningKey, cid)
	if err != nil {
		v.log().WithFields(logrus.Fields{
			"wallet": req.WalletAddress,
			"cid":    cid,
		}).WithError(err).Warn("vault: ledger append failed, content left unreferenced")
		return nil, err
	}

	v.log().WithFields(logrus.Fields{
		"wallet": req.WalletAddress,
		"cid":    cid,
		"tx":     txID,
	}).Info("vault: stored")

	return &StoreResult{CID: cid, TxID: txID}, nil
}

func (v *Vault) append(ctx context.Context, walletAddr, signingKey, cid string) (string, error) {
	if v.SerializeWrites {
		addr, err := wallet.ParseAddress(walletAddr)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		v.locksOnce.Do(func() {
			v.locks = newWalletLocks(v.LockDir, func(path string) {
				v.log().WithField("lock", path).Debug("vault: waiting for wallet lock held by another process")
			})
		})
		unlock, err := v.locks.lock(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInternal, err)
		}
		defer unlock()
	}
	return v.Index.AppendCID(ctx, walletAddr, signingKey, cid)
}

// Retrieve returns every item recorded for req.WalletAddress, opened with
// req.PrivateKey, in ledger order. Any failure aborts the whole call and no
// partial results are returned. A wallet with no entries yields an empty,
// non-nil slice.
func (v *Vault) Retrieve(ctx context.Context, req RetrieveRequest) ([]Item, error) {
	if err := v.ready(); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	cids, err := v.Index.ListCIDs(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if len(cids) == 0 {
		v.log().WithField("wallet", req.WalletAddress).Debug("vault: wallet has no entries")
		return []Item{}, nil
	}

	priv, err := sealbox.ParsePrivateKeyBase64(req.PrivateKey)
	if err != nil {
		return nil, err
	}
	defer sealbox.Zeroize(priv)

	items := make([]Item, 0, len(cids))
	for _, cid := range cids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
		}
		text, err := v.Content.Get(ctx, cid)
		if err != nil {
			return nil, fmt.Errorf("cid %s: %w", cid, err)
		}
		blob, err := sealbox.DecodeBlob(text)
		if err != nil {
			return nil, fmt.Errorf("cid %s: %w", cid, err)
		}
		plaintext, err := sealbox.Open(priv, blob)
		if err != nil {
			return nil, fmt.Errorf("cid %s: %w", cid, err)
		}
		items = append(items, Item{CID: cid, Plaintext: plaintext})
	}

	v.log().WithFields(logrus.Fields{
		"wallet": req.WalletAddress,
		"count":  len(items),
	}).Info("vault: retrieved")

	return items, nil
}

// List returns the CIDs recorded for walletAddress without downloading them.
func (v *Vault) List(ctx context.Context, walletAddress string) ([]string, error) {
	if err := v.ready(); err != nil {
		return nil, err
	}
	if err := checkWallet(walletAddress); err != nil {
		return nil, err
	}
	return v.Index.ListCIDs(ctx, walletAddress)
}
