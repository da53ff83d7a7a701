package main

import (
	"fmt"

	"clinic-portal/internal/auth"

	"github.com/spf13/cobra"
)

func passgenCmd() *cobra.Command {
	var pass string
	cmd := &cobra.Command{
		Use:   "passgen",
		Short: "Print the bcrypt hash of a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				return fmt.Errorf("no password was given")
			}
			passHash, err := auth.EncryptPassword(pass)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), passHash)
			return nil
		},
	}
	cmd.Flags().StringVar(&pass, "pass", "", "Password to encrypt")
	return cmd
}
