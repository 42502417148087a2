package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/festivo/internal/app/membership"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func assignRoleCommand() *cobra.Command {
	var (
		email, role, committee string
		dryRun                 bool
	)
	cmd := &cobra.Command{
		Use:   "assign-role",
		Short: "Set a user's role through the membership engine",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			committees := committeestore.New(e.db)
			p := membership.AssignRoleParams{UserID: u.ID, Role: role}
			if committee != "" {
				c, err := committees.GetActiveByName(e.ctx, committee)
				if errors.Is(err, mongo.ErrNoDocuments) {
					return fmt.Errorf("no active committee named %q", committee)
				}
				if err != nil {
					return err
				}
				p.CommitteeID = &c.ID
			}

			engine := e.engine
			if dryRun {
				if engine, err = dryRunEngine(e.ctx, committees, *u, p.CommitteeID); err != nil {
					return err
				}
			}

			updated, err := engine.AssignRole(e.ctx, membership.System, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written:")
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(updated)
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "user", "", "email of the user to change (required)")
	f.StringVar(&role, "role", "", "student, member, coordinator or admin (required)")
	f.StringVar(&committee, "committee", "", "committee name, required for member")
	f.BoolVar(&dryRun, "dry-run", false, "run against an in-memory copy of the affected records")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// dryRunEngine copies the user and every committee the change can touch
// into a MemRepo.
func dryRunEngine(ctx context.Context, committees *committeestore.Store, u models.User, target *primitive.ObjectID) (*membership.Engine, error) {
	repo := membership.NewMemRepo()
	repo.PutUser(u)

	ids := append([]primitive.ObjectID{}, u.CoordinatedCommitteeIDs...)
	if u.CommitteeID != nil {
		ids = append(ids, *u.CommitteeID)
	}
	if target != nil {
		ids = append(ids, *target)
	}
	cs, err := committees.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		repo.PutCommittee(c)
	}
	return membership.New(repo, nil, nil, nil), nil
}
