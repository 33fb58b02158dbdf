package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		dir := flagOr(cmd, "migrations", cfg.Database.MigrationsDir)

		if list, _ := cmd.Flags().GetBool("list"); list {
			names, err := storage.MigrationNames(storage.MigrationsFS(dir))
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		if cfg.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		applied, err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, dir)
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("list", false, "List known migrations without connecting")
}
