// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNetworks = map[string]bool{
	"mainnet": true,
	"testnet": true,
	"local":   true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
//
// An empty contract address is accepted here; the ledger client rejects it
// on first use so that commands that never touch the ledger still run.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validNetworks[cfg.Chain.Network] {
		return ErrInvalidNetwork
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}

	switch cfg.Ledger.Backend {
	case LedgerRPC, LedgerLocal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLedgerBackend, cfg.Ledger.Backend)
	}
	if a := cfg.Ledger.ContractAddress; a != "" {
		if !strings.HasPrefix(a, "0x") || !common.IsHexAddress(a) {
			return fmt.Errorf("%w: %q", ErrInvalidContractAddress, a)
		}
	}

	switch cfg.Storage.Backend {
	case StorageDaemon:
		if cfg.Storage.DiscoverDomain == "" {
			if err := validateURL(cfg.Storage.APIURL); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidAPIURL, err)
			}
		}
	case StorageCLI, StorageLocal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorageBackend, cfg.Storage.Backend)
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
