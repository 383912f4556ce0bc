package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/repository"
	"github.com/basel-ax/imgworkshop/internal/retention"
)

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete the stored last image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			repo, closeRepo, err := repository.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := retention.NewPurger(repo, cfg.Retention, logger).Purge(cmd.Context()); err != nil {
				return err
			}
			logger.Info("last image purged", zap.String("ref", repo.Ref()))
			return nil
		},
	}
}
