package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/sealbox"
	"github.com/bitfsorg/cidvault/wallet"
)

type keygenResult struct {
	PublicKey  string `json:"public_key" yaml:"public_key"`
	PrivateKey string `json:"private_key" yaml:"private_key"`
	Wallet     string `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	SigningKey string `json:"signing_key,omitempty" yaml:"signing_key,omitempty"`
}

func newKeygenCmd(a *app) *cobra.Command {
	var withSigning bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a sealing key pair (and optionally a wallet signing key)",
		Long: `Generate a fresh X25519 key pair for sealing data, printed as base64.
With --signing, also generate a secp256k1 signing key and its wallet address.
Nothing is written to disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := sealbox.GenerateKeyPair()
			if err != nil {
				return err
			}
			res := keygenResult{
				PublicKey:  kp.PublicKeyBase64(),
				PrivateKey: kp.PrivateKeyBase64(),
			}
			sealbox.Zeroize(kp.PrivateKey)

			if withSigning {
				key, err := wallet.GenerateSigningKey()
				if err != nil {
					return err
				}
				res.Wallet = wallet.AddressFromKey(key).Hex()
				res.SigningKey = wallet.SigningKeyHex(key)
				wallet.ZeroizeKey(key)
			}

			return writeOutput(cmd.OutOrStdout(), a.output, res, func(w io.Writer) error {
				if err := writePlain(w, "public_key:  %s\nprivate_key: %s\n", res.PublicKey, res.PrivateKey); err != nil {
					return err
				}
				if res.Wallet == "" {
					return nil
				}
				return writePlain(w, "wallet:      %s\nsigning_key: %s\n", res.Wallet, res.SigningKey)
			})
		},
	}

	cmd.Flags().BoolVar(&withSigning, "signing", false, "also generate a wallet signing key")
	return cmd
}
