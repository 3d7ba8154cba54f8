// Command authctl is an operator tool for the token auth server: it manages
// signing keys, inspects tokens, hashes passwords and calls protected routes.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Operate a go-token-auth deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(keysCmd(), tokenCmd(), hashPasswordCmd(), callCmd())
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
