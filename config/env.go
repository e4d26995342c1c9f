// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "github.com/bitfsorg/cidvault/network"

// Environment variables consulted by ApplyEnv, in addition to the
// network.EnvRPC* variables.
const (
	EnvContractAddress = "BTTC_CONTRACT_ADDRESS"
	EnvContractABIPath = "BTTC_CONTRACT_ABI_PATH"
	EnvStorageAPIURL   = "BTFS_API_URL"
	EnvLogLevel        = "CIDVAULT_LOG_LEVEL"
	EnvDataDir         = "CIDVAULT_DATA_DIR"
)

// ApplyEnv overrides cfg with every non-empty variable getenv reports.
// Pass os.Getenv in production.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Chain.URL, network.EnvRPCURL)
	set(&cfg.Chain.User, network.EnvRPCUser)
	set(&cfg.Chain.Password, network.EnvRPCPass)
	set(&cfg.Ledger.ContractAddress, EnvContractAddress)
	set(&cfg.Ledger.ABIPath, EnvContractABIPath)
	set(&cfg.Storage.APIURL, EnvStorageAPIURL)
	set(&cfg.LogLevel, EnvLogLevel)
	set(&cfg.DataDir, EnvDataDir)
}
