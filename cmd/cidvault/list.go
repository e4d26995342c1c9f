package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var walletAddr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the CIDs recorded for a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, closer, err := openVault(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			cids, err := v.List(ctx, walletAddr)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, cids, func(w io.Writer) error {
				for _, c := range cids {
					if err := writePlain(w, "%s\n", c); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&walletAddr, "wallet", "w", "", "wallet address (0x...)")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}
