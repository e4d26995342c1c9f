package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/vault"
)

const (
	envSigningKey = "CIDVAULT_SIGNING_KEY"
	envPrivateKey = "CIDVAULT_PRIVATE_KEY"
)

// secretFromFlagOrEnv prefers the flag value, then the environment variable.
func secretFromFlagOrEnv(flagValue, env string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(env)
}

// readPayload returns --data, the contents of --file ("-" for stdin), or an
// error when neither or both are given.
func readPayload(cmd *cobra.Command, data, file string) ([]byte, error) {
	dataSet := cmd.Flags().Changed("data")
	switch {
	case dataSet && file != "":
		return nil, errors.New("--data and --file are mutually exclusive")
	case dataSet:
		return []byte(data), nil
	case file == "-":
		return io.ReadAll(cmd.InOrStdin())
	case file != "":
		return os.ReadFile(file)
	}
	return nil, errors.New("one of --data or --file is required")
}

func newStoreCmd(a *app) *cobra.Command {
	var (
		walletAddr string
		signingKey string
		recipient  string
		data       string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Seal data, upload it and record its CID for a wallet",
		Long: `Seal data for the recipient public key, upload the sealed blob to content
storage and append the resulting CID to the wallet's ledger index.

The signing key may be given with --signing-key or ` + envSigningKey + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, data, file)
			if err != nil {
				return err
			}
			key := secretFromFlagOrEnv(signingKey, envSigningKey)
			if key == "" {
				return fmt.Errorf("signing key required (--signing-key or %s)", envSigningKey)
			}

			v, closer, err := openVault(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			res, err := v.Store(ctx, vault.StoreRequest{
				WalletAddress:      walletAddr,
				SigningKey:         key,
				RecipientPublicKey: recipient,
				Plaintext:          payload,
			})
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), a.output, res, func(w io.Writer) error {
				return writePlain(w, "cid: %s\ntx:  %s\n", res.CID, res.TxID)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&walletAddr, "wallet", "w", "", "wallet address (0x...)")
	f.StringVar(&signingKey, "signing-key", "", "hex signing key controlling the wallet")
	f.StringVar(&recipient, "recipient", "", "base64 public key to seal for")
	f.StringVar(&data, "data", "", "data to store")
	f.StringVarP(&file, "file", "f", "", "read data from file (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}
