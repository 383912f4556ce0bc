package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:           "imgworkshop",
		Short:         "Password-protected image workshop",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server
		RunE: serve.RunE,
	}

	cmd.PersistentFlags().Bool("verbose", false, "enable verbose logging")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve, newPurgeCmd())

	return cmd
}

// setup loads configuration and builds the logger shared by all commands
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger, err := logging.New(verbose)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("configuration loaded", zap.String("backend", cfg.LastImageBackend))

	return cfg, logger, nil
}
