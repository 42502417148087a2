package main

import (
	"fmt"

	"github.com/dalemusser/festivo/internal/app/ops"
	"github.com/spf13/cobra"
)

func seedCommand() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset (admin, students, Tech Committee, events)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := ops.Seed(e.ctx, e.db, e.engine, reset, e.log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d users, committee %q and %d events\n", res.Users, res.Committee.Name, len(res.Events))
			fmt.Fprintln(out, "Admin: admin@festivo.com / admin123")
			fmt.Fprintln(out, "Committee member: committee@festivo.com / committee123")
			fmt.Fprintln(out, "Students: john@, jane@, mike@, sarah@, david@student.com / student123")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing users, committees, events and participation data first")
	return cmd
}
