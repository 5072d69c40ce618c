package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ChecklistCmd returns the checklist command.
func ChecklistCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "checklist <submission.yaml|submission.json>",
		Short: "Score a soil-carbon monitoring submission against the checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := readSubmission(args[0])
			if err != nil {
				return err
			}

			results := domain.RunChecklist(form)
			score := domain.ComputeScore(results)
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), map[string]any{
					"score":   score,
					"label":   domain.ScoreLabel(score),
					"results": results,
				})
			}
			renderChecklist(cmd.OutOrStdout(), results, score)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// readSubmission decodes a form from YAML. JSON files parse the same way.
func readSubmission(path string) (domain.UploadFormData, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.UploadFormData{}, fmt.Errorf("open submission: %w", err)
	}
	defer f.Close()

	var form domain.UploadFormData
	if err := yaml.NewDecoder(f).Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		return domain.UploadFormData{}, fmt.Errorf("decode submission %s: %w", path, err)
	}
	return form, nil
}

func renderChecklist(w io.Writer, results []domain.ChecklistResult, score int) {
	fmt.Fprintf(w, "Compliance score: %d (%s)\n", score, domain.ScoreLabel(score))

	groups := domain.GroupByCategory(results)
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		fmt.Fprintf(w, "\n%s\n", c)
		for _, r := range groups[c] {
			fmt.Fprintf(w, "  [%-14s] %s (%s)\n", r.Result, r.Item.Requirement, r.Item.Severity)
		}
	}
}
