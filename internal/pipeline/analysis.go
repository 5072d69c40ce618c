package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
)

var monthKey = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrInvalidWindow is returned for monitoring windows that are not YYYY-MM..YYYY-MM.
var ErrInvalidWindow = errors.New("invalid monitoring window")

// MonitoringWindow is an inclusive month range, both ends YYYY-MM.
type MonitoringWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks both bounds are well-formed and ordered.
func (w MonitoringWindow) Validate() error {
	if !monthKey.MatchString(w.Start) || !monthKey.MatchString(w.End) {
		return fmt.Errorf("%w: want YYYY-MM, got %q..%q", ErrInvalidWindow, w.Start, w.End)
	}
	if w.Start > w.End {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// ContextRequest asks for the climate context of a monitoring period.
type ContextRequest struct {
	Lat              float64          `json:"lat"`
	Lng              float64          `json:"lng"`
	Window           MonitoringWindow `json:"window"`
	SOCChange        *float64         `json:"soc_change"`
	SOCChangePercent *float64         `json:"soc_change_percent"`
}

// ContextAnalysis is the monitoring window's climate against the full
// record and the resulting narrative findings.
type ContextAnalysis struct {
	Window          MonitoringWindow         `json:"window"`
	Climate         domain.ProcessedClimate  `json:"climate"`
	MonitoringData  []domain.MonthlyClimate  `json:"monitoring_data"`
	Anomaly         domain.ClimateAnomaly    `json:"anomaly"`
	Context         domain.MonitoringContext `json:"context"`
	Interpretations []domain.Interpretation  `json:"interpretations"`
}

// Interpret filters the processed record to the window, computes anomalies
// against every month of the record and runs the interpretation rules. A
// drought anywhere in the record counts as drought during the window.
func Interpret(climate domain.ProcessedClimate, window MonitoringWindow, socChange, socChangePercent *float64) ContextAnalysis {
	monitoring := domain.FilterMonths(climate.MonthlyData, window.Start, window.End)
	anomaly := domain.ComputeAnomalies(monitoring, climate.MonthlyData)
	mc := domain.NewMonitoringContext(socChange, socChangePercent, anomaly, climate.DroughtEvents)

	return ContextAnalysis{
		Window:          window,
		Climate:         climate,
		MonitoringData:  monitoring,
		Anomaly:         anomaly,
		Context:         mc,
		Interpretations: domain.GenerateInterpretation(mc),
	}
}

// Analyzer builds context analyses from a climate provider.
type Analyzer struct {
	climate domain.ClimateProvider
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(climate domain.ClimateProvider) *Analyzer {
	return &Analyzer{climate: climate}
}

// Analyze fetches the default climate record for the location and interprets the window.
func (a *Analyzer) Analyze(ctx context.Context, req ContextRequest) (ContextAnalysis, error) {
	if err := req.Window.Validate(); err != nil {
		return ContextAnalysis{}, err
	}
	series, err := a.climate.DailyClimate(ctx, req.Lat, req.Lng, domain.DateRange{})
	if err != nil {
		return ContextAnalysis{}, fmt.Errorf("fetch climate: %w", err)
	}
	return Interpret(domain.ProcessClimate(series), req.Window, req.SOCChange, req.SOCChangePercent), nil
}
