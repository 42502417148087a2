package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

func tokenCommand() *cobra.Command {
	var (
		email, secret string
		ttl           time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--jwt-secret or FESTIVO_JWT_SECRET is required")
			}
			issuer, err := auth.NewTokenIssuer(secret, ttl)
			if err != nil {
				return err
			}

			e, err := connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := userstore.New(e.db).GetByEmail(e.ctx, email)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("no user with email %q", email)
			}
			if err != nil {
				return err
			}
			if u.IsBlocked {
				return fmt.Errorf("user %q is blocked", email)
			}

			tok, err := issuer.Issue(u.ID.Hex(), u.Role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "user", "", "email of the user (required)")
	f.StringVar(&secret, "jwt-secret", os.Getenv("FESTIVO_JWT_SECRET"), "HS256 signing secret")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
