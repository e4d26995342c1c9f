package ledger

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Default contract method names.
const (
	DefaultAppendMethod = "storeCID"
	DefaultListMethod   = "getCIDs"
)

//go:embed bttc_cid_mapping_abi.json
var defaultABIJSON []byte

// DefaultABI returns the ABI of the BTTC_CID_Mapping index contract.
func DefaultABI() *abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(defaultABIJSON))
	if err != nil {
		panic(fmt.Sprintf("ledger: embedded ABI: %v", err))
	}
	return &parsed
}

// LoadABI reads a contract ABI from a JSON file as produced by solc.
func LoadABI(path string) (*abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read ABI: %w", ErrLedgerConfig, err)
	}
	return ParseABI(data)
}

// ParseABI parses a contract ABI from JSON.
func ParseABI(data []byte) (*abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse ABI: %w", ErrLedgerConfig, err)
	}
	return &parsed, nil
}

// checkMethods verifies that a exposes an append method taking one string and
// a list method taking one address and returning string[].
func checkMethods(a *abi.ABI, appendName, listName string) error {
	if a == nil {
		return fmt.Errorf("%w: ABI not configured", ErrLedgerConfig)
	}
	m, ok := a.Methods[appendName]
	if !ok {
		return fmt.Errorf("%w: ABI has no method %q", ErrLedgerConfig, appendName)
	}
	if len(m.Inputs) != 1 || m.Inputs[0].Type.T != abi.StringTy {
		return fmt.Errorf("%w: %s must take a single string", ErrLedgerConfig, appendName)
	}
	l, ok := a.Methods[listName]
	if !ok {
		return fmt.Errorf("%w: ABI has no method %q", ErrLedgerConfig, listName)
	}
	if len(l.Inputs) != 1 || l.Inputs[0].Type.T != abi.AddressTy {
		return fmt.Errorf("%w: %s must take a single address", ErrLedgerConfig, listName)
	}
	if len(l.Outputs) != 1 || l.Outputs[0].Type.T != abi.SliceTy ||
		l.Outputs[0].Type.Elem == nil || l.Outputs[0].Type.Elem.T != abi.StringTy {
		return fmt.Errorf("%w: %s must return string[]", ErrLedgerConfig, listName)
	}
	return nil
}
