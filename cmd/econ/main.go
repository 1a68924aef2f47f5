// Command econ evaluates scenario files through the economics engines and
// writes comparison reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fund-economics-lab/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds state shared by subcommands after PersistentPreRunE.
type app struct {
	configPath string
	envFile    string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "econ",
		Short: "Equity and fund economics scenario engine",
		Long: `econ evaluates anti-dilution, conversion and fund waterfall scenarios
from a YAML scenario file and writes Markdown and CSV comparison reports.

Settings come from an optional config file and FUNDECON_* environment
variables; a .env file is loaded first when present.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (YAML); defaults plus FUNDECON_* env when empty")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before config, ignored when missing")

	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) init() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the econ version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "econ %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
