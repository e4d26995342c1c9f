package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (POST /store_data, POST /retrieve_data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := a.cfg.ListenAddr
			if listen != "" {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			v, closer, err := openVault(ctx, a)
			if err != nil {
				return err
			}
			defer closer.Close()

			return httpapi.New(addr, v, a.cfg.Timeout(), a.log).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return cmd
}
