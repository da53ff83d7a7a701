package main

import (
	"encoding/json"
	"os"

	"clinic-portal/internal/notifications"

	"github.com/spf13/cobra"
)

func remindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Remind the patients of their appointments of tomorrow",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, dbConn, err := bootstrap()
			if err != nil {
				return err
			}
			defer dbConn.Close()

			var marker notifications.Marker
			if addr := config.RedisAddr(); addr != "" {
				redisMarker := notifications.NewRedisMarker(addr)
				defer redisMarker.Close()
				marker = redisMarker
			}
			service := notifications.NewService(config, dbConn, notifications.NewSender(config, logger), marker, logger)
			summary, err := service.SendReminders(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(summary)
		},
	}
}
