// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the cidvault configuration file.
//
// The file is TOML and lives at ~/.cidvault/config.toml unless
// CIDVAULT_CONFIG_DIR names another directory. Environment variables
// override file values (see ApplyEnv); command-line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bitfsorg/cidvault/network"
)

const (
	// FileName is the configuration file name inside the config directory.
	FileName = "config.toml"

	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "CIDVAULT_CONFIG_DIR"

	defaultDirName = ".cidvault"
)

// Ledger backends.
const (
	LedgerRPC   = "rpc"
	LedgerLocal = "local"
)

// Storage backends.
const (
	StorageDaemon = "daemon"
	StorageCLI    = "cli"
	StorageLocal  = "local"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	DataDir        string   `toml:"data_dir"`
	ListenAddr     string   `toml:"listen_addr"`
	LogLevel       string   `toml:"log_level"`
	LogFile        string   `toml:"log_file"`
	RequestTimeout Duration `toml:"request_timeout"`

	Chain   network.RPCConfig `toml:"chain"`
	Ledger  LedgerConfig      `toml:"ledger"`
	Storage StorageConfig     `toml:"storage"`
}

// LedgerConfig selects and configures the ledger index.
type LedgerConfig struct {
	Backend         string `toml:"backend"`
	ContractAddress string `toml:"contract_address"`
	ABIPath         string `toml:"abi_path"`
	AppendMethod    string `toml:"append_method"`
	ListMethod      string `toml:"list_method"`
	GasLimit        uint64 `toml:"gas_limit"`
	// GasPriceGwei of 0 asks the node for a price.
	GasPriceGwei uint64 `toml:"gas_price_gwei"`
	// ChainID of 0 takes the network's chain id; the local network asks
	// the node.
	ChainID int64 `toml:"chain_id"`
	// NetworkFile is a JSON network definition overriding the preset for
	// the chain's network.
	NetworkFile     string `toml:"network_file"`
	SerializeWrites bool   `toml:"serialize_writes"`
	LockDir         string `toml:"lock_dir"`
}

// StorageConfig selects and configures the content store.
type StorageConfig struct {
	Backend        string `toml:"backend"`
	APIURL         string `toml:"api_url"`
	APIPrefix      string `toml:"api_prefix"`
	NoPin          bool   `toml:"no_pin"`
	CLIPath        string `toml:"cli_path"`
	Cache          bool   `toml:"cache"`
	DiscoverDomain string `toml:"discover_domain"`
	DNSUpstream    string `toml:"dns_upstream"`
	RequireDNSSEC  bool   `toml:"require_dnssec"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	dir := defaultDir()
	return Config{
		DataDir:        dir,
		ListenAddr:     ":8000",
		LogLevel:       "info",
		RequestTimeout: Duration(2 * time.Minute),
		Chain: network.RPCConfig{
			Network: "testnet",
		},
		Ledger: LedgerConfig{
			Backend:      LedgerRPC,
			AppendMethod: "storeCID",
			ListMethod:   "getCIDs",
			GasLimit:     300_000,
			GasPriceGwei: 10,
		},
		Storage: StorageConfig{
			Backend:   StorageDaemon,
			APIURL:    "http://127.0.0.1:5001",
			APIPrefix: "/api/v1",
			CLIPath:   "btfs",
		},
	}
}

// defaultDir returns ~/.cidvault, falling back to a relative path when the
// home directory is unknown.
func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// Dir returns the configuration directory: $CIDVAULT_CONFIG_DIR when set,
// else ~/.cidvault.
func Dir() string {
	if d := os.Getenv(EnvConfigDir); d != "" {
		return d
	}
	return defaultDir()
}

// ConfigPath returns the path of the configuration file inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadConfig reads the file at path over DefaultConfig, so keys missing from
// the file keep their defaults. Unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	var perr toml.ParseError
	if errors.As(err, &perr) {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return Config{}, fmt.Errorf("config: read %s: %w", path, err)
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
// The file is created with mode 0600 since it may hold RPC credentials.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: failed to create directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# cidvault configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("config: failed to write config: %w", err)
	}
	return nil
}

// Timeout returns the per-request deadline; zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout)
}

// BlobDir is where the local content store keeps blobs.
func (c Config) BlobDir() string { return filepath.Join(c.DataDir, "blobs") }

// CacheDir is where the read-through cache keeps downloaded blobs.
func (c Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

// LedgerDBPath is the bbolt file of the local ledger index.
func (c Config) LedgerDBPath() string { return filepath.Join(c.DataDir, "ledger.db") }
