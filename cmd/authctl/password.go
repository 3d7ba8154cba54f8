package main

import (
	"fmt"

	"github.com/jrsteele09/go-token-auth/users"
	"github.com/spf13/cobra"
)

func hashPasswordCmd() *cobra.Command {
	var checkStrength bool

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash stored for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkStrength {
				if err := users.ValidatePasswordStrength(args[0]); err != nil {
					return err
				}
			}
			hash, err := users.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkStrength, "strict", false, "Reject passwords that fail the strength rules")
	return cmd
}
