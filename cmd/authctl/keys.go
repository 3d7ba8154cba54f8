package main

import (
	"fmt"

	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/spf13/cobra"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage token signing keys",
	}
	cmd.AddCommand(keysGenerateCmd())
	return cmd
}

func keysGenerateCmd() *cobra.Command {
	var (
		alg         string
		keyID       string
		privatePath string
		publicPath  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a signing key pair and print its JWKS",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keys.GenerateKeyPair(keyID, alg)
			if err != nil {
				return err
			}
			if err := keys.WriteKeyPair(kp, privatePath, publicPath); err != nil {
				return err
			}
			jwks, err := kp.JWKS()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s and %s\n", privatePath, publicPath)
			return printJSON(cmd.OutOrStdout(), jwks)
		},
	}

	cmd.Flags().StringVar(&alg, "alg", keys.RS256, "Signing algorithm (RS256 or ES256)")
	cmd.Flags().StringVar(&keyID, "key-id", "default", "Key ID placed in token headers")
	cmd.Flags().StringVar(&privatePath, "private", "data/jwt_private.pem", "Private key output path")
	cmd.Flags().StringVar(&publicPath, "public", "data/jwt_public.pem", "Public key output path")
	return cmd
}
