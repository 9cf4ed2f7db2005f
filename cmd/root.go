package cmd

import (
	"fmt"
	"os"

	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/agentic-research/quotaframe/internal/config"
	"github.com/agentic-research/quotaframe/internal/logging"
	"github.com/agentic-research/quotaframe/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// app carries the resolved configuration into the subcommands.
type app struct {
	configFile string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "quotaframe",
		Short:         "Quotaframe: build, validate and store survey quota frames",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "Path to config file (yaml, json or toml)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", logging.FormatConsole, "Log format: console or json")
	pf.String("db", "quotaframe.db", "Path to the frame store")
	pf.Bool("no-targets", false, "Leave targets out of encoded frames")

	root.AddCommand(
		newValidateCmd(a),
		newBuildCmd(a),
		newQueryCmd(a),
		newStoreCmd(a),
		newMCPCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	cfg, err := config.Load(a.configFile, map[string]*pflag.Flag{
		config.KeyLogLevel:        pf.Lookup("log-level"),
		config.KeyLogFormat:       pf.Lookup("log-format"),
		config.KeyStorePath:       pf.Lookup("db"),
		config.KeySuppressTargets: pf.Lookup("no-targets"),
	})
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.Named("quotaframe")
	a.logger.Debug("command started", zap.String("command", cmd.CommandPath()))
	return nil
}

func (a *app) validator() *validate.Validator {
	return validate.New(validate.WithLogger(a.logger))
}

func (a *app) codecOptions() codec.Options {
	return codec.Options{SuppressTargets: a.cfg.Codec.SuppressTargets}
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
