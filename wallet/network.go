package wallet

import (
	"encoding/json"
	"fmt"
	"os"
)

// NetworkConfig defines the parameters of an EVM ledger network.
type NetworkConfig struct {
	Name     string `json:"name"`
	ChainID  int64  `json:"chain_id"`
	RPCURL   string `json:"rpc_url"`
	Explorer string `json:"explorer"`
	Symbol   string `json:"symbol"`
}

// Predefined network configurations.
var (
	MainNet = NetworkConfig{
		Name:     "mainnet",
		ChainID:  199,
		RPCURL:   "https://rpc.bittorrentchain.io",
		Explorer: "https://bttcscan.com",
		Symbol:   "BTT",
	}

	// TestNet is the BTTC Donau testnet, the default of the original deployment.
	TestNet = NetworkConfig{
		Name:     "testnet",
		ChainID:  1029,
		RPCURL:   "https://rpc-testnet.bittorrentchain.io",
		Explorer: "https://testnet.bttcscan.com",
		Symbol:   "BTT",
	}

	// Local is a development node (anvil, hardhat, ganache).
	Local = NetworkConfig{
		Name:    "local",
		ChainID: 1337,
		RPCURL:  "http://localhost:8545",
		Symbol:  "ETH",
	}
)

// predefined maps network names to their configs.
var predefined = map[string]*NetworkConfig{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"local":   &Local,
}

// GetNetwork returns a predefined network by name.
// If the name is not predefined, it returns ErrInvalidNetwork.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// LoadCustomNetwork loads a NetworkConfig from a JSON file.
func LoadCustomNetwork(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to read network config: %w", err)
	}

	var config NetworkConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("wallet: failed to parse network config: %w", err)
	}

	if config.Name == "" {
		return nil, fmt.Errorf("wallet: network config must have a name")
	}
	if config.ChainID <= 0 {
		return nil, fmt.Errorf("wallet: network config %q must have a positive chain_id", config.Name)
	}

	return &config, nil
}
