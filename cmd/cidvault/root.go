package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/config"
)

// app carries state shared by subcommands once the root's pre-run has
// resolved configuration.
type app struct {
	configPath string
	output     string
	logLevel   string
	dataDir    string
	netFile    string

	cfg     config.Config
	log     *logrus.Logger
	logFile io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "cidvault",
		Short:         "Store data sealed for a wallet on content-addressed storage, indexed on chain",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default $CIDVAULT_CONFIG_DIR/config.toml or ~/.cidvault/config.toml)")
	f.StringVarP(&a.output, "output", "o", "text", "output format: text, json, or yaml")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	f.StringVar(&a.dataDir, "data-dir", "", "data directory for local stores and caches")
	f.StringVar(&a.netFile, "network-file", "", "JSON network definition (name, chain_id, rpc_url, explorer)")

	cmd.AddCommand(
		newKeygenCmd(a),
		newStoreCmd(a),
		newRetrieveCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newBlobsCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// setup loads the config file (defaults when absent), applies environment
// then flag overrides, validates, and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	if !validOutput(a.output) {
		return fmt.Errorf("invalid --output %q (must be text, json, or yaml)", a.output)
	}

	path := a.configPath
	if path == "" {
		path = config.ConfigPath(config.Dir())
	}
	a.configPath = path

	cfg, err := config.LoadConfig(path)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.DefaultConfig()
	case err != nil:
		return err
	}
	config.ApplyEnv(&cfg, os.Getenv)
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.netFile != "" {
		cfg.Ledger.NetworkFile = a.netFile
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	log, closer, err := newLogger(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log, a.logFile = log, closer
	return nil
}

// commandContext bounds a command by the configured request timeout.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if t := a.cfg.Timeout(); t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}
