package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	kafkaadapter "github.com/beccaRND/ci-fund-intelligence/internal/adapter/kafka"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/seed"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
	"github.com/spf13/cobra"
)

// RankCmd returns the rank command.
func RankCmd() *cobra.Command {
	var (
		projectsFile string
		publish      bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Assess and rank every project in the portfolio",
		Long: `Fetch climate and soil data for each portfolio project, compute its
degradation assessment and print the projects ranked by priority score.

With --publish the ranked assessments are also written to the Kafka
assessment topic (requires KAFKA_BROKERS).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if projectsFile == "" {
				projectsFile = e.cfg.ProjectsFile
			}
			projects, err := seed.LoadFile(projectsFile)
			if err != nil {
				return err
			}

			var publisher pipeline.Publisher
			if publish {
				if len(e.cfg.KafkaBrokers) == 0 {
					return errors.New("--publish requires KAFKA_BROKERS")
				}
				p := kafkaadapter.NewPublisher(e.cfg, e.logger)
				defer p.Close()
				publisher = p
			}

			ranker := pipeline.NewRanker(e.climate, e.soil, e.cfg.PortfolioBatchSize, e.logger, e.metrics)
			result := pipeline.NewPortfolio(projects, ranker, publisher, 0, e.logger, e.metrics).Refresh(cmd.Context())

			if asJSON {
				return writeIndented(cmd.OutOrStdout(), result)
			}
			return renderRanking(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&projectsFile, "projects", "", "portfolio seed file (default PROJECTS_FILE)")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish ranked assessments to Kafka")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")

	return cmd
}

func renderRanking(w io.Writer, result pipeline.PortfolioResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPROJECT\tCOMMODITY\tZONE\tDEFICIT %\tSCORE")
	for _, a := range result.Assessments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f\t%.1f\n",
			a.PriorityRank, a.ProjectID, a.Commodity, a.ClimateZone, a.SOCDeficitPercent, a.PriorityScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d projects assessed (run %s)\n", result.SuccessCount, result.TotalProjects, result.RunID)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.ProjectID, e.Error)
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
