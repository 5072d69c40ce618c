package cli

import (
	"fmt"
	"io"

	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
	"github.com/spf13/cobra"
)

// InterpretCmd returns the interpret command.
func InterpretCmd() *cobra.Command {
	var (
		req       pipeline.ContextRequest
		socChange float64
		socPct    float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "interpret",
		Short: "Explain a monitoring period's SOC change against its climate",
		Example: `  landctl interpret --lat -32.3 --lng 22.6 --start 2022-01 --end 2023-12 --soc-change -1.8
  landctl interpret --lat 44.9 --lng 105.1 --start 2023-01 --end 2023-12`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("soc-change") {
				req.SOCChange = &socChange
			}
			if cmd.Flags().Changed("soc-change-percent") {
				req.SOCChangePercent = &socPct
			}
			if err := req.Window.Validate(); err != nil {
				return err
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			analysis, err := pipeline.NewAnalyzer(e.climate).Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), analysis)
			}
			renderAnalysis(cmd.OutOrStdout(), analysis)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&req.Lat, "lat", 0, "latitude")
	f.Float64Var(&req.Lng, "lng", 0, "longitude")
	f.StringVar(&req.Window.Start, "start", "", "first month of the monitoring window (YYYY-MM)")
	f.StringVar(&req.Window.End, "end", "", "last month of the monitoring window (YYYY-MM)")
	f.Float64Var(&socChange, "soc-change", 0, "measured SOC change from baseline (t C/ha)")
	f.Float64Var(&socPct, "soc-change-percent", 0, "measured SOC change from baseline (%)")
	f.BoolVar(&asJSON, "json", false, "print the full analysis as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func renderAnalysis(w io.Writer, a pipeline.ContextAnalysis) {
	fmt.Fprintf(w, "Monitoring window %s..%s (%d months of data)\n", a.Window.Start, a.Window.End, len(a.MonitoringData))
	fmt.Fprintf(w, "Precipitation anomaly: %+.1f%%  Temperature anomaly: %+.2f°C  Drought events in record: %d\n\n",
		a.Anomaly.PrecipAnomaly, a.Anomaly.TempAnomaly, a.Climate.DroughtEvents)
	for _, in := range a.Interpretations {
		fmt.Fprintf(w, "[%s] %s\n  %s\n", in.Severity, in.Headline, in.Body)
	}
}
