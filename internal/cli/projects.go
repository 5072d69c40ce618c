package cli

import (
	"fmt"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/seed"
	"github.com/spf13/cobra"
)

// ProjectsCmd returns the projects command group.
func ProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect the portfolio seed file",
	}
	cmd.AddCommand(projectsValidateCmd())
	return cmd
}

func projectsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <projects.yaml>",
		Short: "Check a seed file for unknown fields, bad coordinates and duplicate ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, proj := range p.Projects() {
				fmt.Fprintf(out, "  %-24s %-10s %10.0f ha  (%.2f, %.2f)\n", proj.ID, proj.Commodity, proj.Hectares, proj.Lat, proj.Lng)
			}
			fmt.Fprintf(out, "%s: %d projects OK\n", args[0], p.Len())
			return nil
		},
	}
}
