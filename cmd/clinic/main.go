// Command clinic runs the doctor patient portal API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"
	"clinic-portal/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic",
		Short:         "Doctor patient portal API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(remindersCmd())
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(passgenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigurations loads system configurations based on the given config file.
func loadConfigurations() (configs.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("no config file path was given")
	}
	return configs.Load(configPath)
}

// bootstrap loads the configuration, the logger and the database connection shared by the
// commands that need them.
func bootstrap() (configs.Config, zerolog.Logger, database.Connection, error) {
	config, err := loadConfigurations()
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := logging.New(os.Stdout, config.LogLevel())
	dbConn, err := database.NewConnection(config, logger)
	if err != nil {
		return nil, logger, nil, err
	}
	return config, logger, dbConn, nil
}
