package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/cidvault/wallet"
)

var (
	bucketWallets = []byte("wallets")
	bucketTxs     = []byte("txs")
)

// ErrTxNotFound indicates an unknown local transaction id.
var ErrTxNotFound = errors.New("ledger: transaction not found")

// BoltIndex implements Index in a local bbolt database. It is the offline
// stand-in for the index contract: same append-only, per-wallet ordering, and
// the signing key must still control the wallet. Appends are committed
// immediately, so they are "confirmed" as soon as AppendCID returns.
type BoltIndex struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Index = (*BoltIndex)(nil)

// Record is a locally committed append.
type Record struct {
	TxID   string
	Wallet common.Address
	Seq    uint64
	CID    string
}

// OpenBoltIndex opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltIndex(dbPath string) (*BoltIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", ErrLedgerConfig, err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db: %w", ErrLedgerConfig, err)
	}

	err = db.Update(func(btx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketWallets, bucketTxs} {
			if _, err := btx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltindex: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %w", ErrLedgerConfig, err)
	}
	return &BoltIndex{db: db}, nil
}

// Close closes the underlying database.
func (b *BoltIndex) Close() error { return b.db.Close() }

// seqKey encodes a sequence number as an 8-byte big-endian key for ordered iteration.
func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// localTxID is keccak256(wallet || seq || cid).
func localTxID(addr common.Address, seq uint64, cid string) common.Hash {
	return crypto.Keccak256Hash(addr.Bytes(), seqKey(seq), []byte(cid))
}

// AppendCID appends cid to the wallet's list.
func (b *BoltIndex) AppendCID(ctx context.Context, walletAddress, signingKey, cid string) (string, error) {
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
	wallet.ZeroizeKey(key)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	var txID common.Hash
	err = b.db.Update(func(btx *bbolt.Tx) error {
		wb, err := btx.Bucket(bucketWallets).CreateBucketIfNotExists(addr.Bytes())
		if err != nil {
			return fmt.Errorf("boltindex: wallet bucket: %w", err)
		}
		seq, err := wb.NextSequence()
		if err != nil {
			return fmt.Errorf("boltindex: next sequence: %w", err)
		}
		if err := wb.Put(seqKey(seq), []byte(cid)); err != nil {
			return fmt.Errorf("boltindex: put cid: %w", err)
		}
		txID = localTxID(addr, seq, cid)
		ref := append(addr.Bytes(), seqKey(seq)...)
		if err := btx.Bucket(bucketTxs).Put(txID.Bytes(), ref); err != nil {
			return fmt.Errorf("boltindex: put tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	return txID.Hex(), nil
}

// ListCIDs returns the wallet's CIDs in append order.
func (b *BoltIndex) ListCIDs(ctx context.Context, walletAddress string) ([]string, error) {
	addr, err := parseWallet(walletAddress)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	cids := []string{}
	err = b.db.View(func(btx *bbolt.Tx) error {
		wb := btx.Bucket(bucketWallets).Bucket(addr.Bytes())
		if wb == nil {
			return nil
		}
		return wb.ForEach(func(_, v []byte) error {
			cids = append(cids, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	return cids, nil
}

// Lookup returns the record committed under txID.
func (b *BoltIndex) Lookup(txID string) (*Record, error) {
	h, err := ParseTxHash(txID)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = b.db.View(func(btx *bbolt.Tx) error {
		ref := btx.Bucket(bucketTxs).Get(h.Bytes())
		if ref == nil {
			return fmt.Errorf("%w: %s", ErrTxNotFound, h.Hex())
		}
		if len(ref) != common.AddressLength+8 {
			return fmt.Errorf("boltindex: corrupt tx record %s", h.Hex())
		}
		addr := common.BytesToAddress(ref[:common.AddressLength])
		seq := binary.BigEndian.Uint64(ref[common.AddressLength:])
		wb := btx.Bucket(bucketWallets).Bucket(addr.Bytes())
		if wb == nil {
			return fmt.Errorf("boltindex: missing wallet bucket for %s", h.Hex())
		}
		rec = &Record{
			TxID:   h.Hex(),
			Wallet: addr,
			Seq:    seq,
			CID:    string(wb.Get(seqKey(seq))),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
