package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/claims-service/internal/auth"
)

func (rt *app) tokenCommand() *cobra.Command {
	var user, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed actor token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, _, err := rt.config()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
			token, expires, err := tokens.GenerateToken(user, name)
			if err != nil {
				return err
			}
			if rt.jsonOutput {
				return rt.printJSON(map[string]any{
					"token":      token,
					"expires_at": expires.UTC().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(rt.opts.Out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Actor identifier carried as the token subject")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}
