package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for the HTTP API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.Auth.Enabled() {
			return errors.New("auth.jwt_secret is not set; the API accepts unauthenticated requests")
		}
		ttl := cfg.Auth.TokenTTL
		if d, _ := cmd.Flags().GetDuration("ttl"); d > 0 {
			ttl = d
		}

		tok, err := api.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl).Issue(args[0], time.Now())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default auth.token_ttl)")
}
