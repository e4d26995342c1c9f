package network

import (
	"fmt"

	"github.com/bitfsorg/cidvault/wallet"
)

// RPCConfig holds the connection parameters for a ledger node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url" toml:"rpc_url"`
	User     string `json:"user,omitempty" toml:"rpc_user"`
	Password string `json:"password,omitempty" toml:"rpc_password"`
	Network  string `json:"network" toml:"network"`
}

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "BTTC_RPC_URL"
	EnvRPCUser = "BTTC_RPC_USER"
	EnvRPCPass = "BTTC_RPC_PASS"
)

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	wallet.Local.Name:   {URL: wallet.Local.RPCURL},
	wallet.TestNet.Name: {URL: wallet.TestNet.RPCURL},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (BTTC_RPC_URL, BTTC_RPC_USER, BTTC_RPC_PASS)
//  3. Network presets (lowest priority, local/testnet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	// Layer 1: start with preset defaults if available.
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	// Layer 2: environment variables override preset defaults.
	if v := env[EnvRPCURL]; v != "" {
		result.URL = v
	}
	if v := env[EnvRPCUser]; v != "" {
		result.User = v
	}
	if v := env[EnvRPCPass]; v != "" {
		result.Password = v
	}

	// Layer 3: CLI flags have highest priority.
	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, %s, or config file)", network, EnvRPCURL)
	}
	return &result, nil
}
