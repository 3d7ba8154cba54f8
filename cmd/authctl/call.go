package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-token-auth/client"
	"github.com/spf13/cobra"
)

func callCmd() *cobra.Command {
	var (
		baseURL  string
		email    string
		password string
		method   string
		body     string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Log in and call a protected route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := client.New(baseURL)
			if _, err := c.Login(ctx, email, password); err != nil {
				return err
			}

			var opts client.RequestOptions
			if body != "" {
				opts.Body = []byte(body)
			}
			resp, err := c.Request(ctx, strings.ToUpper(method), args[0], opts, true)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(resp.Body)
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Auth and resource server base URL")
	cmd.Flags().StringVar(&email, "email", "admin@user.com", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&body, "data", "d", "", "JSON request body")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}
