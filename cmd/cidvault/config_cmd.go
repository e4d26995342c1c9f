package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
	}

	cmd.AddCommand(newConfigShowCmd(a), newConfigPathCmd(a), newConfigInitCmd(a))
	return cmd
}

// redacted returns cfg without credentials.
func redacted(cfg config.Config) config.Config {
	if cfg.Chain.Password != "" {
		cfg.Chain.Password = "********"
	}
	return cfg
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, environment and flags merged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := redacted(a.cfg)
			return writeOutput(cmd.OutOrStdout(), a.output, cfg, func(w io.Writer) error {
				var buf bytes.Buffer
				if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
					return err
				}
				_, err := w.Write(buf.Bytes())
				return err
			})
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writePlain(cmd.OutOrStdout(), "%s\n", a.configPath)
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.LoadConfig(a.configPath)
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
			case err != nil && !errors.Is(err, config.ErrConfigNotFound) && !force:
				return err
			}
			if err := config.SaveConfig(a.configPath, config.DefaultConfig()); err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
