package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/cidvault/config"
	"github.com/bitfsorg/cidvault/ledger"
	"github.com/bitfsorg/cidvault/network"
	"github.com/bitfsorg/cidvault/storage"
	"github.com/bitfsorg/cidvault/vault"
	"github.com/bitfsorg/cidvault/wallet"
)

// closers releases resources in reverse order of acquisition.
type closers []io.Closer

func (c closers) Close() error {
	var first error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openContentStore builds the configured content store, wrapped in a local
// read-through cache when enabled.
func openContentStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.ContentStore, error) {
	sc := cfg.Storage

	var remote storage.ContentStore
	switch sc.Backend {
	case config.StorageLocal:
		fs, err := storage.NewFileStore(cfg.BlobDir())
		if err != nil {
			return nil, err
		}
		log.WithField("dir", fs.BaseDir()).Debug("local content store")
		return fs, nil
	case config.StorageCLI:
		remote = storage.NewCLIClient(sc.CLIPath)
	default:
		apiURL := sc.APIURL
		if sc.DiscoverDomain != "" {
			urls, err := storage.DiscoverEndpoints(ctx, sc.DiscoverDomain,
				storage.NewDNSResolver(sc.DNSUpstream, sc.RequireDNSSEC))
			if err != nil {
				return nil, err
			}
			apiURL = urls[0]
			log.WithFields(logrus.Fields{
				"domain":    sc.DiscoverDomain,
				"endpoint":  apiURL,
				"endpoints": len(urls),
			}).Debug("storage endpoint discovered")
		}
		d, err := storage.NewDaemonClient(storage.DaemonConfig{
			URL:       apiURL,
			APIPrefix: sc.APIPrefix,
			NoPin:     sc.NoPin,
		})
		if err != nil {
			return nil, err
		}
		log.WithField("endpoint", d.Endpoint()).Debug("storage daemon")
		remote = d
	}

	if !sc.Cache {
		return remote, nil
	}
	cache, err := storage.NewFileStore(cfg.CacheDir())
	if err != nil {
		return nil, err
	}
	return storage.NewResolver(cache, remote), nil
}

// chainNetwork returns the parameters of the configured chain: the network
// file when one is set, else the named preset.
func chainNetwork(cfg config.Config) (*wallet.NetworkConfig, error) {
	if cfg.Ledger.NetworkFile != "" {
		n, err := wallet.LoadCustomNetwork(cfg.Ledger.NetworkFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ledger.ErrLedgerConfig, err)
		}
		return n, nil
	}
	n, err := wallet.GetNetwork(cfg.Chain.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrLedgerConfig, err)
	}
	return n, nil
}

// rpcBackend connects to the configured chain node. A network file's rpc_url
// stands in when no URL is configured.
func rpcBackend(cfg config.Config, n *wallet.NetworkConfig) (*network.RPCClient, error) {
	flags := cfg.Chain
	if flags.URL == "" && cfg.Ledger.NetworkFile != "" && n != nil {
		flags.URL = n.RPCURL
	}
	rc, err := network.ResolveConfig(&flags, nil, cfg.Chain.Network)
	if err != nil {
		return nil, err
	}
	return network.NewRPCClient(*rc), nil
}

// indexConfig translates the [ledger] section. Without an explicit chain_id
// the network's is used, except on the local network where development
// nodes disagree and the node is asked.
func indexConfig(lc config.LedgerConfig, n *wallet.NetworkConfig) (ledger.IndexConfig, error) {
	var contractABI *abi.ABI
	if lc.ABIPath != "" {
		a, err := ledger.LoadABI(lc.ABIPath)
		if err != nil {
			return ledger.IndexConfig{}, err
		}
		contractABI = a
	} else {
		contractABI = ledger.DefaultABI()
	}

	ic := ledger.IndexConfig{
		ContractAddress: lc.ContractAddress,
		ABI:             contractABI,
		AppendMethod:    lc.AppendMethod,
		ListMethod:      lc.ListMethod,
		GasLimit:        lc.GasLimit,
	}
	if lc.GasPriceGwei > 0 {
		ic.GasPrice = new(big.Int).Mul(new(big.Int).SetUint64(lc.GasPriceGwei), big.NewInt(1_000_000_000))
	}
	switch {
	case lc.ChainID > 0:
		ic.ChainID = big.NewInt(lc.ChainID)
	case n != nil && n.ChainID > 0 && n.Name != wallet.Local.Name:
		ic.ChainID = big.NewInt(n.ChainID)
	}
	return ic, nil
}

// openIndex builds the configured ledger index. The returned closer is nil
// for the RPC backend.
func openIndex(cfg config.Config, log *logrus.Logger) (ledger.Index, io.Closer, error) {
	if cfg.Ledger.Backend == config.LedgerLocal {
		b, err := ledger.OpenBoltIndex(cfg.LedgerDBPath())
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	}

	n, err := chainNetwork(cfg)
	if err != nil {
		return nil, nil, err
	}
	backend, err := rpcBackend(cfg, n)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ledger.ErrLedgerConfig, err)
	}
	ic, err := indexConfig(cfg.Ledger, n)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"rpc":      backend.URL(),
		"network":  n.Name,
		"chain_id": ic.ChainID,
	}).Debug("ledger index")
	return ledger.NewRPCIndex(backend, ic, log), nil, nil
}

// openVault wires content store and ledger index per configuration.
func openVault(ctx context.Context, a *app) (*vault.Vault, io.Closer, error) {
	content, err := openContentStore(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	index, closer, err := openIndex(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}

	opts := []vault.Option{vault.WithLogger(a.log)}
	if a.cfg.Ledger.SerializeWrites {
		opts = append(opts, vault.WithSerializedWrites(a.cfg.Ledger.LockDir))
	}

	var cs closers
	if closer != nil {
		cs = append(cs, closer)
	}
	return vault.New(content, index, opts...), cs, nil
}
