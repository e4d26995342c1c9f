// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the chain network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"local\")")

	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidTimeout indicates a negative request timeout.
	ErrInvalidTimeout = errors.New("config: request timeout must not be negative")

	// ErrInvalidLedgerBackend indicates an unknown [ledger] backend.
	ErrInvalidLedgerBackend = errors.New("config: invalid ledger backend (must be \"rpc\" or \"local\")")

	// ErrInvalidStorageBackend indicates an unknown [storage] backend.
	ErrInvalidStorageBackend = errors.New("config: invalid storage backend (must be \"daemon\", \"cli\", or \"local\")")

	// ErrInvalidContractAddress indicates a contract address that is not a 0x-prefixed 20-byte hex string.
	ErrInvalidContractAddress = errors.New("config: invalid contract address")

	// ErrInvalidAPIURL indicates a storage daemon URL that does not parse.
	ErrInvalidAPIURL = errors.New("config: invalid storage API URL")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfig indicates the configuration file is not valid TOML.
	ErrInvalidConfig = errors.New("config: invalid configuration file")
)
