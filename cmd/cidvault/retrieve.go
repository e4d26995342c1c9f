package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/vault"
)

// retrievedItem is the printable form of a vault.Item. Binary plaintext is
// carried as bytes so JSON renders it base64.
type retrievedItem struct {
	CID  string `json:"cid" yaml:"cid"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Data []byte `json:"data,omitempty" yaml:"data,omitempty"`
}

func toRetrievedItem(it vault.Item) retrievedItem {
	if utf8.Valid(it.Plaintext) {
		return retrievedItem{CID: it.CID, Text: string(it.Plaintext)}
	}
	return retrievedItem{CID: it.CID, Data: it.Plaintext}
}

func newRetrieveCmd(a *app) *cobra.Command {
	var (
		walletAddr string
		privateKey string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Download and open every item recorded for a wallet",
		Long: `List the wallet's CIDs from the ledger index, download each sealed blob and
open it with the private key. Items come back in ledger order; any failure
aborts the whole retrieval.

The private key may be given with --private-key or ` + envPrivateKey + `.
With --out-dir, each item is written to <out-dir>/<cid> instead of printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := secretFromFlagOrEnv(privateKey, envPrivateKey)
			if key == "" {
				return fmt.Errorf("private key required (--private-key or %s)", envPrivateKey)
			}

			v, closer, err := openVault(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			items, err := v.Retrieve(ctx, vault.RetrieveRequest{WalletAddress: walletAddr, PrivateKey: key})
			if err != nil {
				return err
			}

			if outDir != "" {
				return writeItems(cmd.OutOrStdout(), outDir, items)
			}

			out := make([]retrievedItem, 0, len(items))
			for _, it := range items {
				out = append(out, toRetrievedItem(it))
			}
			return writeOutput(cmd.OutOrStdout(), a.output, out, func(w io.Writer) error {
				if len(out) == 0 {
					return writePlain(w, "No data found for this wallet\n")
				}
				for _, it := range out {
					if it.Data != nil {
						if err := writePlain(w, "%s\t(%d bytes binary)\n", it.CID, len(it.Data)); err != nil {
							return err
						}
						continue
					}
					if err := writePlain(w, "%s\t%s\n", it.CID, it.Text); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&walletAddr, "wallet", "w", "", "wallet address (0x...)")
	f.StringVar(&privateKey, "private-key", "", "base64 private key to open items with")
	f.StringVar(&outDir, "out-dir", "", "write each item to a file named by its CID")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}

func writeItems(w io.Writer, dir string, items []vault.Item) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	for _, it := range items {
		path := filepath.Join(dir, it.CID)
		if err := os.WriteFile(path, it.Plaintext, 0600); err != nil {
			return err
		}
		if err := writePlain(w, "%s\n", path); err != nil {
			return err
		}
	}
	return nil
}
