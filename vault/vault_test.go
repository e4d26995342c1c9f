package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/cidvault/ledger"
	"github.com/bitfsorg/cidvault/ledger/ledgertest"
	"github.com/bitfsorg/cidvault/network"
	"github.com/bitfsorg/cidvault/sealbox"
	"github.com/bitfsorg/cidvault/storage"
	"github.com/bitfsorg/cidvault/wallet"
)

// Anvil/hardhat development accounts.
const (
	keyA    = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	walletA = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	keyB    = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	walletB = "0x70997970C51812dc3A010C7d01b50e20d17dc79C"
)

// --- Helper functions ---

type fixture struct {
	vault   *Vault
	content *storage.FileStore
	index   *ledger.BoltIndex
	keys    *sealbox.KeyPair
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()

	content, err := storage.NewFileStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	index, err := ledger.OpenBoltIndex(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	kp, err := sealbox.GenerateKeyPair()
	require.NoError(t, err)

	return &fixture{
		vault:   New(content, index, opts...),
		content: content,
		index:   index,
		keys:    kp,
	}
}

func (f *fixture) store(t *testing.T, data string) *StoreResult {
	t.Helper()
	res, err := f.vault.Store(context.Background(), StoreRequest{
		WalletAddress:      walletA,
		SigningKey:         keyA,
		RecipientPublicKey: f.keys.PublicKeyBase64(),
		Plaintext:          []byte(data),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) retrieve(wallet string) ([]Item, error) {
	return f.vault.Retrieve(context.Background(), RetrieveRequest{
		WalletAddress: wallet,
		PrivateKey:    f.keys.PrivateKeyBase64(),
	})
}

func plaintexts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it.Plaintext)
	}
	return out
}

// --- Store / Retrieve ---

func TestStoreRetrieve_RoundTrip(t *testing.T) {
	f := newFixture(t)

	res := f.store(t, "hello vault")
	assert.NotEmpty(t, res.CID)
	assert.NotEmpty(t, res.TxID)

	cids, err := f.index.ListCIDs(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, []string{res.CID}, cids)

	items, err := f.retrieve(walletA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, res.CID, items[0].CID)
	assert.Equal(t, "hello vault", string(items[0].Plaintext))
}

func TestStore_BlobIsSealedBase64(t *testing.T) {
	f := newFixture(t)
	res := f.store(t, "secret")

	text, err := f.content.Get(context.Background(), res.CID)
	require.NoError(t, err)
	assert.NotContains(t, string(text), "secret")

	blob, err := sealbox.DecodeBlob(text)
	require.NoError(t, err)
	assert.Len(t, blob, sealbox.Overhead+len("secret"))
}

func TestRetrieve_EmptyWallet(t *testing.T) {
	f := newFixture(t)

	items, err := f.retrieve(walletB)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRetrieve_EmptyWalletIgnoresBadKey(t *testing.T) {
	f := newFixture(t)

	items, err := f.vault.Retrieve(context.Background(), RetrieveRequest{
		WalletAddress: walletB,
		PrivateKey:    "not base64!",
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_NotIdempotent(t *testing.T) {
	f := newFixture(t)

	r1 := f.store(t, "same bytes")
	r2 := f.store(t, "same bytes")
	assert.NotEqual(t, r1.CID, r2.CID, "fresh ephemeral key per seal")
	assert.NotEqual(t, r1.TxID, r2.TxID)

	items, err := f.retrieve(walletA)
	require.NoError(t, err)
	assert.Equal(t, []string{"same bytes", "same bytes"}, plaintexts(items))
}

func TestRetrieve_PreservesLedgerOrder(t *testing.T) {
	f := newFixture(t)

	var want []string
	for i := 0; i < 5; i++ {
		s := fmt.Sprintf("entry-%d", i)
		f.store(t, s)
		want = append(want, s)
	}

	items, err := f.retrieve(walletA)
	require.NoError(t, err)
	assert.Equal(t, want, plaintexts(items))
}

func TestRetrieve_PrunedContentFailsWholeCall(t *testing.T) {
	f := newFixture(t)

	f.store(t, "first")
	pruned := f.store(t, "second")
	f.store(t, "third")
	require.NoError(t, f.content.Delete(pruned.CID))

	items, err := f.retrieve(walletA)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, storage.ErrContentNotFound)
	assert.Contains(t, err.Error(), pruned.CID)
	assert.Equal(t, KindContentNotFound, Kind(err))
}

func TestRetrieve_WrongKey(t *testing.T) {
	f := newFixture(t)
	f.store(t, "for someone else")

	other, err := sealbox.GenerateKeyPair()
	require.NoError(t, err)

	items, err := f.vault.Retrieve(context.Background(), RetrieveRequest{
		WalletAddress: walletA,
		PrivateKey:    other.PrivateKeyBase64(),
	})
	assert.Nil(t, items)
	assert.ErrorIs(t, err, sealbox.ErrAuthFailed)
	assert.Equal(t, KindCrypto, Kind(err))
}

func TestRetrieve_CorruptBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	garbage := []byte("this is not a sealed blob")
	cid, err := f.content.Put(ctx, garbage)
	require.NoError(t, err)
	_, err = f.index.AppendCID(ctx, walletA, keyA, cid)
	require.NoError(t, err)

	_, err = f.retrieve(walletA)
	assert.ErrorIs(t, err, sealbox.ErrCrypto)
}

func TestStore_InvalidPublicKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.vault.Store(context.Background(), StoreRequest{
		WalletAddress:      walletA,
		SigningKey:         keyA,
		RecipientPublicKey: "c2hvcnQ=",
		Plaintext:          []byte("x"),
	})
	assert.ErrorIs(t, err, sealbox.ErrInvalidPublicKey)

	list, err := f.content.List()
	require.NoError(t, err)
	assert.Empty(t, list, "nothing uploaded when sealing fails")
}

func TestStore_EmptyPlaintext(t *testing.T) {
	f := newFixture(t)
	f.store(t, "")

	items, err := f.retrieve(walletA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Plaintext)
}

func TestStore_LedgerFailureLeavesOrphan(t *testing.T) {
	f := newFixture(t)
	log, hook := test.NewNullLogger()
	f.vault.Logger = log

	_, err := f.vault.Store(context.Background(), StoreRequest{
		WalletAddress:      walletA,
		SigningKey:         keyB, // does not control walletA
		RecipientPublicKey: f.keys.PublicKeyBase64(),
		Plaintext:          []byte("orphan"),
	})
	require.ErrorIs(t, err, ledger.ErrKeyMismatch)
	assert.Equal(t, KindSigning, Kind(err))

	list, err := f.content.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, list[0], entry.Data["cid"])
	for _, v := range entry.Data {
		assert.NotEqual(t, keyB, v)
	}
}

func TestStore_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := f.keys.PublicKeyBase64()

	tests := []struct {
		name string
		req  StoreRequest
	}{
		{"missing wallet", StoreRequest{SigningKey: keyA, RecipientPublicKey: pub}},
		{"missing signing key", StoreRequest{WalletAddress: walletA, RecipientPublicKey: pub}},
		{"missing public key", StoreRequest{WalletAddress: walletA, SigningKey: keyA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.vault.Store(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, KindInvalidRequest, Kind(err))
		})
	}
}

func TestRetrieve_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.vault.Retrieve(context.Background(), RetrieveRequest{PrivateKey: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.vault.Retrieve(context.Background(), RetrieveRequest{WalletAddress: walletA})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVault_NotConfigured(t *testing.T) {
	var v *Vault
	_, err := v.Store(context.Background(), StoreRequest{})
	assert.ErrorIs(t, err, ErrInternal)

	_, err = New(nil, nil).Retrieve(context.Background(), RetrieveRequest{})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	r1 := f.store(t, "a")
	r2 := f.store(t, "b")

	cids, err := f.vault.List(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, []string{r1.CID, r2.CID}, cids)

	_, err = f.vault.List(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// --- SerializeWrites ---

// nonceIndex stands in for a chain client that reads the nonce before
// submitting, so unserialized concurrent appends collide.
type nonceIndex struct {
	mu      sync.Mutex
	nonce   int
	entries []string
	clashes int
	inner   ledger.Index
}

func (n *nonceIndex) AppendCID(ctx context.Context, wallet, key, cid string) (string, error) {
	n.mu.Lock()
	seen := n.nonce
	n.mu.Unlock()

	txID, err := n.inner.AppendCID(ctx, wallet, key, cid)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.nonce != seen {
		n.clashes++
	}
	n.nonce++
	n.entries = append(n.entries, cid)
	return txID, err
}

func (n *nonceIndex) ListCIDs(ctx context.Context, wallet string) ([]string, error) {
	return n.inner.ListCIDs(ctx, wallet)
}

func TestSerializeWrites_NoNonceClash(t *testing.T) {
	base := newFixture(t)
	idx := &nonceIndex{inner: base.index}
	v := New(base.content, idx, WithSerializedWrites(t.TempDir()))
	assert.True(t, v.SerializeWrites)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := v.Store(context.Background(), StoreRequest{
				WalletAddress:      walletA,
				SigningKey:         keyA,
				RecipientPublicKey: base.keys.PublicKeyBase64(),
				Plaintext:          []byte(fmt.Sprintf("concurrent-%d", i)),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Zero(t, idx.clashes)
	assert.Len(t, idx.entries, n)

	items, err := v.Retrieve(context.Background(), RetrieveRequest{
		WalletAddress: walletA,
		PrivateKey:    base.keys.PrivateKeyBase64(),
	})
	require.NoError(t, err)
	assert.Len(t, items, n)
}

func TestSerializeWrites_LockFileStaysInLockDir(t *testing.T) {
	root := t.TempDir()
	lockDir := filepath.Join(root, "locks")
	f := newFixture(t, WithSerializedWrites(lockDir))

	for _, w := range []string{"../escaped", "../../" + walletA[2:], walletA + "/.."} {
		_, err := f.vault.Store(context.Background(), StoreRequest{
			WalletAddress:      w,
			SigningKey:         keyA,
			RecipientPublicKey: f.keys.PublicKeyBase64(),
			Plaintext:          []byte("x"),
		})
		require.ErrorIs(t, err, ErrInvalidRequest, w)
		assert.ErrorIs(t, err, wallet.ErrInvalidAddress)
		assert.Equal(t, KindInvalidRequest, Kind(err))
	}
	_, err := os.Stat(filepath.Join(root, "escaped.lock"))
	assert.True(t, os.IsNotExist(err))

	// Mixed case and lower case name the same lock file.
	f.store(t, "one")
	_, err = f.vault.Store(context.Background(), StoreRequest{
		WalletAddress:      strings.ToLower(walletA),
		SigningKey:         keyA,
		RecipientPublicKey: f.keys.PublicKeyBase64(),
		Plaintext:          []byte("two"),
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(lockDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, strings.ToLower(walletA)+".lock", entries[0].Name())
}

func TestStore_MalformedWalletUploadsNothing(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		wallet string
	}{
		{"path", "../escaped"},
		{"no prefix", walletA[2:]},
		{"short", "0x1234"},
		{"bad checksum", "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.vault.Store(context.Background(), StoreRequest{
				WalletAddress:      tt.wallet,
				SigningKey:         keyA,
				RecipientPublicKey: f.keys.PublicKeyBase64(),
				Plaintext:          []byte("never uploaded"),
			})
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	list, err := f.content.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRetrieve_MalformedWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.retrieve("not-a-wallet")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.vault.List(context.Background(), "../escaped")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// --- Against the JSON-RPC chain fake ---

func TestVault_WithRPCIndex(t *testing.T) {
	chain := ledgertest.NewFakeChain(ledger.DefaultABI(), 1029)
	t.Cleanup(chain.Close)

	idx := ledger.NewRPCIndex(network.NewRPCClient(network.RPCConfig{URL: chain.URL()}), ledger.IndexConfig{
		ContractAddress: ledgertest.ContractAddress.Hex(),
		ABI:             ledger.DefaultABI(),
		GasPrice:        ledger.DefaultGasPrice,
	}, nil)

	content, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	kp, err := sealbox.GenerateKeyPair()
	require.NoError(t, err)

	v := New(content, idx)
	ctx := context.Background()

	for _, s := range []string{"one", "two"} {
		res, err := v.Store(ctx, StoreRequest{
			WalletAddress:      walletA,
			SigningKey:         keyA,
			RecipientPublicKey: kp.PublicKeyBase64(),
			Plaintext:          []byte(s),
		})
		require.NoError(t, err)
		_, err = ledger.ParseTxHash(res.TxID)
		assert.NoError(t, err)
	}

	items, err := v.Retrieve(ctx, RetrieveRequest{WalletAddress: walletA, PrivateKey: kp.PrivateKeyBase64()})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, plaintexts(items))

	chain.Fail("eth_sendRawTransaction", "insufficient funds for gas")
	_, err = v.Store(ctx, StoreRequest{
		WalletAddress:      walletA,
		SigningKey:         keyA,
		RecipientPublicKey: kp.PublicKeyBase64(),
		Plaintext:          []byte("three"),
	})
	assert.ErrorIs(t, err, ledger.ErrSubmission)
	assert.Equal(t, KindSubmission, Kind(err))
}

// --- Kind ---

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{sealbox.ErrAuthFailed, KindCrypto},
		{fmt.Errorf("cid x: %w", sealbox.ErrInvalidCiphertext), KindCrypto},
		{storage.ErrContentNotFound, KindContentNotFound},
		{storage.ErrInvalidCID, KindStorageRejected},
		{storage.ErrContentMismatch, KindStorageUnavailable},
		{ledger.ErrLedgerConfig, KindLedgerConfig},
		{ledger.ErrKeyMismatch, KindSigning},
		{ledger.ErrNoContract, KindSubmission},
		{ErrInvalidRequest, KindInvalidRequest},
		{ErrInternal, KindInternal},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
