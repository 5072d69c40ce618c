package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrMissingData marks a project whose soil or climate lookup failed.
var ErrMissingData = errors.New("missing data")

// RankedAssessment is a degradation assessment with the project details a
// portfolio view needs.
type RankedAssessment struct {
	domain.DegradationAssessment
	ProjectName string  `json:"project_name"`
	Country     string  `json:"country"`
	Commodity   string  `json:"commodity"`
	Hectares    float64 `json:"hectares"`
}

// ProjectError records why one project could not be assessed.
type ProjectError struct {
	ProjectID string `json:"project_id"`
	Error     string `json:"error"`
}

// PortfolioResult is the outcome of one ranking run. Assessments are ordered
// by rank; projects that failed appear only in Errors.
type PortfolioResult struct {
	RunID         string             `json:"run_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Assessments   []RankedAssessment `json:"assessments"`
	Errors        []ProjectError     `json:"errors"`
	TotalProjects int                `json:"total_projects"`
	SuccessCount  int                `json:"success_count"`
}

// Ranker assesses every project in a portfolio and ranks them by priority.
type Ranker struct {
	climate   domain.ClimateProvider
	soil      domain.SoilProvider
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRanker creates a Ranker that assesses at most batchSize projects at once.
func NewRanker(climate domain.ClimateProvider, soil domain.SoilProvider, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Ranker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Ranker{
		climate:   climate,
		soil:      soil,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

type outcome struct {
	assessment RankedAssessment
	err        error
}

// Rank assesses projects in fixed-size batches. A batch finishes completely
// before the next starts, and a failed project never affects the others.
// Successful assessments are sorted by priority score, descending, with ties
// kept in input order, and ranked 1..N.
func (r *Ranker) Rank(ctx context.Context, projects []domain.Project) PortfolioResult {
	start := time.Now()
	result := PortfolioResult{
		RunID:         uuid.NewString(),
		GeneratedAt:   start.UTC(),
		Assessments:   make([]RankedAssessment, 0, len(projects)),
		Errors:        []ProjectError{},
		TotalProjects: len(projects),
	}

	for i := 0; i < len(projects); i += r.batchSize {
		batch := projects[i:min(i+r.batchSize, len(projects))]
		outcomes := make([]outcome, len(batch))

		var g errgroup.Group
		for j, project := range batch {
			g.Go(func() error {
				a, err := r.assess(ctx, project)
				outcomes[j] = outcome{assessment: a, err: err}
				return nil
			})
		}
		_ = g.Wait() // jobs never return an error

		for j, o := range outcomes {
			if o.err != nil {
				r.logger.Warn("project assessment failed", "project_id", batch[j].ID, "error", o.err)
				r.metrics.AssessmentFailures.Inc()
				result.Errors = append(result.Errors, ProjectError{ProjectID: batch[j].ID, Error: o.err.Error()})
				continue
			}
			r.metrics.AssessmentsComputed.Inc()
			result.Assessments = append(result.Assessments, o.assessment)
		}
	}

	sort.SliceStable(result.Assessments, func(a, b int) bool {
		return result.Assessments[a].PriorityScore > result.Assessments[b].PriorityScore
	})
	for i := range result.Assessments {
		result.Assessments[i].PriorityRank = i + 1
	}
	result.SuccessCount = len(result.Assessments)

	r.metrics.PortfolioDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("portfolio ranked",
		"run_id", result.RunID,
		"total_projects", result.TotalProjects,
		"success_count", result.SuccessCount,
		"duration", time.Since(start),
	)
	return result
}

// assess fetches climate and soil for one project in parallel and computes its assessment.
func (r *Ranker) assess(ctx context.Context, project domain.Project) (RankedAssessment, error) {
	var (
		series  domain.ClimateSeries
		profile domain.SoilProfile
		climErr error
		soilErr error
		g       errgroup.Group
	)
	g.Go(func() error {
		series, climErr = r.climate.DailyClimate(ctx, project.Lat, project.Lng, domain.DateRange{})
		return nil
	})
	g.Go(func() error {
		profile, soilErr = r.soil.SoilProfile(ctx, project.Lat, project.Lng)
		return nil
	})
	_ = g.Wait()

	if climErr != nil || soilErr != nil {
		return RankedAssessment{}, fmt.Errorf("%w: soil=%t, climate=%t", ErrMissingData, soilErr == nil, climErr == nil)
	}

	climate := domain.ProcessClimate(series)
	a := domain.ComputeDegradation(project.ID, profile.SOCStock, profile.TextureClass,
		climate.AnnualPrecip, project.Commodity, project.Hectares)

	return RankedAssessment{
		DegradationAssessment: a,
		ProjectName:           project.Name,
		Country:               project.Country,
		Commodity:             project.Commodity,
		Hectares:              project.Hectares,
	}, nil
}
