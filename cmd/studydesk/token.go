package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studydesk/internal/httpapi"
)

func tokenCmd() *cobra.Command {
	var (
		flagUser string
		flagTTL  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the task API (development use)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not set")
			}
			user := flagUser
			if user == "" {
				user = cfg.User
			}
			tok, err := httpapi.IssueToken(cfg.Server.JWTSecret, user, flagTTL, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagUser, "user", "", "Token subject (default from config)")
	cmd.Flags().DurationVar(&flagTTL, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}
