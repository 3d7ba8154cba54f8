package main

import (
	"errors"

	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/spf13/cobra"
)

type decodedToken struct {
	Header *jwt.Header `json:"header"`
	Claims *jwt.Claims `json:"claims"`
	Status string      `json:"status,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect tokens",
	}
	cmd.AddCommand(tokenDecodeCmd())
	return cmd
}

func tokenDecodeCmd() *cobra.Command {
	var (
		publicKeyPath string
		secret        string
		use           string
	)

	cmd := &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a token, and verify it when a key is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, claims, err := jwt.Decode(args[0])
			if err != nil {
				return err
			}
			out := decodedToken{Header: header, Claims: claims}

			key, err := verificationKey(publicKeyPath, secret)
			if err != nil {
				return err
			}
			if key != nil {
				verifier, err := token.NewVerifier(key)
				if err != nil {
					return err
				}
				result := verifier.Check(token.Kind(use), args[0])
				out.Status = result.Status.String()
				if result.Reason != nil {
					out.Reason = result.Reason.Error()
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&publicKeyPath, "public-key", "", "PEM public key to verify RS256/ES256 tokens with")
	cmd.Flags().StringVar(&secret, "secret", "", "Shared secret to verify HS256 tokens with")
	cmd.Flags().StringVar(&use, "use", string(token.KindAccess), "Expected token use (access or refresh)")
	return cmd
}

func verificationKey(publicKeyPath, secret string) (keys.VerificationKey, error) {
	switch {
	case publicKeyPath != "" && secret != "":
		return nil, errors.New("--public-key and --secret are mutually exclusive")
	case publicKeyPath != "":
		return keys.LoadPublicKeyFile("", publicKeyPath)
	case secret != "":
		return keys.NewHMACSecret(secret)
	default:
		return nil, nil
	}
}
