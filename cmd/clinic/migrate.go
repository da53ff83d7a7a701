package main

import (
	"context"
	"time"

	"clinic-portal/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, dbConn, err := bootstrap()
			if err != nil {
				return err
			}
			defer dbConn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err = database.Migrate(ctx, dbConn); err != nil {
				return err
			}
			logger.Info().Msg("schema applied")
			return nil
		},
	}
}
