package main

import (
	"fmt"

	"github.com/dalemusser/festivo/internal/app/ops"
	"github.com/spf13/cobra"
)

func reconcileCommand() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report users whose role disagrees with committee rosters",
		Long: "Scans every user and committee. Stale primary links on students and admins,\n" +
			"members whose primary committee is unset, missing or inactive, and missing\n" +
			"roster entries are fixable with --fix; the rest are reported only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := ops.Reconcile(e.ctx, e.db, e.engine, fix, e.log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range res.Violations {
				mark := " "
				if v.Fixable {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %s\n", mark, v)
			}
			fmt.Fprintf(out, "%d violations", len(res.Violations))
			if fix {
				fmt.Fprintf(out, ", %d repaired, %d failed", res.Repaired, res.Failed)
			}
			fmt.Fprintln(out)
			if res.Failed > 0 {
				return fmt.Errorf("%d repairs failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "repair fixable violations (marked *)")
	return cmd
}
