package cli

import "github.com/spf13/cobra"

// RootCmd assembles the landctl command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "landctl",
		Short: "Regenerative landscape intelligence for the fund portfolio",
		Long: `landctl ranks portfolio projects by restoration priority, scores
soil-carbon monitoring submissions and interprets measured SOC change against
the climate of the monitoring period. Provider endpoints and limits come from
the same environment variables as the server.`,
		SilenceUsage: true,
	}
	root.AddCommand(RankCmd())
	root.AddCommand(ChecklistCmd())
	root.AddCommand(InterpretCmd())
	root.AddCommand(ProjectsCmd())
	return root
}
