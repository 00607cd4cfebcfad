// cmd/token/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exploreiib/pharma-net/internal/config"
	"github.com/exploreiib/pharma-net/internal/utils"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		logrus.WithError(err).Fatal("Failed to issue token")
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		organization string
		ttlHours     int
	)

	cmd := &cobra.Command{
		Use:   "pharmanet-token",
		Short: "Issue a gateway bearer token for an organization",
		Long: `Signs a token with JWT_SECRET that pins gateway requests to one configured
organization. The token is printed to stdout.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := issueToken(cfg, organization, ttlHours)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVarP(&organization, "org", "o", "", "organization name, e.g. manufacturer")
	cmd.Flags().IntVar(&ttlHours, "ttl", 0, "token lifetime in hours (defaults to JWT_TTL)")
	cmd.MarkFlagRequired("org")
	return cmd
}

func issueToken(cfg *config.Config, organization string, ttlHours int) (string, error) {
	if cfg.JWT.SecretKey == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	organization = strings.ToLower(strings.TrimSpace(organization))
	if _, ok := cfg.Organizations[organization]; !ok {
		return "", fmt.Errorf("organization %q is not configured", organization)
	}
	if ttlHours <= 0 {
		ttlHours = cfg.JWT.TokenTTL
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return utils.GenerateJWT(organization, ttlHours)
}
