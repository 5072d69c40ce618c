package domain

import (
	"math"
	"strings"
	"time"
)

// ValidationResult is the outcome of one checklist rule.
type ValidationResult string

const (
	ResultCompliant     ValidationResult = "compliant"
	ResultMissing       ValidationResult = "missing"
	ResultOffSpec       ValidationResult = "off-spec"
	ResultNotApplicable ValidationResult = "not-applicable"
)

// Severity weights a checklist item in the compliance score.
type Severity string

const (
	SeverityRequired    Severity = "required"
	SeverityRecommended Severity = "recommended"
	SeverityOptional    Severity = "optional"
)

const (
	requiredWeight    = 90
	recommendedWeight = 10

	minDepthCm             = 30
	maxBaselineOffsetYears = 5
	maxVerificationYears   = 5
	minQAQCMethods         = 2
	minSamplesPerStratum   = 5
	// unsetVerificationYears stands in for a missing verification frequency so it fails the rule.
	unsetVerificationYears = 99
)

// UploadFormData is a monitoring submission as entered by a grantee.
type UploadFormData struct {
	// Sampling design
	NumberOfStrata        *int     `json:"number_of_strata" yaml:"number_of_strata"`
	StratificationFactors []string `json:"stratification_factors" yaml:"stratification_factors"`
	SamplesPerStratum     *int     `json:"samples_per_stratum" yaml:"samples_per_stratum"`
	MaxDepthCm            *float64 `json:"max_depth_cm" yaml:"max_depth_cm"`
	DepthIntervals        []string `json:"depth_intervals" yaml:"depth_intervals"`

	// Laboratory
	LabMethod           string   `json:"lab_method" yaml:"lab_method"`
	LabName             string   `json:"lab_name" yaml:"lab_name"`
	BulkDensityApproach string   `json:"bulk_density_approach" yaml:"bulk_density_approach"`
	QAQCMethods         []string `json:"qaqc_methods" yaml:"qaqc_methods"`

	// Spatial
	GPSCoordinates  bool `json:"gps_coordinates" yaml:"gps_coordinates"`
	GPSFileUploaded bool `json:"gps_file_uploaded" yaml:"gps_file_uploaded"`

	// Timing
	BaselineDate               string   `json:"baseline_date" yaml:"baseline_date"`
	CurrentMeasurementDate     string   `json:"current_measurement_date" yaml:"current_measurement_date"`
	ProjectStartYear           *int     `json:"project_start_year" yaml:"project_start_year"`
	VerificationFrequencyYears *float64 `json:"verification_frequency_years" yaml:"verification_frequency_years"`

	// Results
	MeanSOC               *float64 `json:"mean_soc" yaml:"mean_soc"`
	SOCChangeFromBaseline *float64 `json:"soc_change_from_baseline" yaml:"soc_change_from_baseline"`
	ConfidenceInterval    *float64 `json:"confidence_interval" yaml:"confidence_interval"`
	ResultsFileUploaded   bool     `json:"results_file_uploaded" yaml:"results_file_uploaded"`

	// Documentation
	SamplingProtocolUploaded bool   `json:"sampling_protocol_uploaded" yaml:"sampling_protocol_uploaded"`
	LabReportUploaded        bool   `json:"lab_report_uploaded" yaml:"lab_report_uploaded"`
	AdditionalNotes          string `json:"additional_notes" yaml:"additional_notes"`
}

// Submission is the reduced set of facts the checklist rules inspect.
type Submission struct {
	MaxDepthCm                 float64
	LabMethod                  string
	BulkDensityMeasured        bool
	GPSCoordinates             bool
	StratificationDocumented   bool
	BaselineYear               int // 0 when unknown
	ProjectStartYear           int // 0 when unknown
	VerificationFrequencyYears float64
	QAQCDocumented             bool
	SamplesPerStratum          int
}

// Normalize reduces form data to checklist facts. Absent depth and sample
// counts become 0 and an absent verification frequency becomes 99, so the
// corresponding rules report off-spec.
func Normalize(form UploadFormData) Submission {
	sub := Submission{
		LabMethod:                  strings.TrimSpace(form.LabMethod),
		BulkDensityMeasured:        form.BulkDensityApproach == "measured" || form.BulkDensityApproach == "esm",
		GPSCoordinates:             form.GPSCoordinates,
		StratificationDocumented:   len(form.StratificationFactors) > 0 && form.NumberOfStrata != nil && *form.NumberOfStrata > 0,
		BaselineYear:               parseYear(form.BaselineDate),
		VerificationFrequencyYears: unsetVerificationYears,
		QAQCDocumented:             len(form.QAQCMethods) >= minQAQCMethods,
	}
	if form.MaxDepthCm != nil {
		sub.MaxDepthCm = *form.MaxDepthCm
	}
	if form.ProjectStartYear != nil {
		sub.ProjectStartYear = *form.ProjectStartYear
	}
	if form.VerificationFrequencyYears != nil {
		sub.VerificationFrequencyYears = *form.VerificationFrequencyYears
	}
	if form.SamplesPerStratum != nil {
		sub.SamplesPerStratum = *form.SamplesPerStratum
	}
	return sub
}

// parseYear extracts the year from a date string, returning 0 when it cannot.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()
		}
	}
	return 0
}

// Rule evaluates one checklist requirement against a submission.
type Rule interface {
	Evaluate(sub Submission) ValidationResult
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(sub Submission) ValidationResult

// Evaluate calls f(sub).
func (f RuleFunc) Evaluate(sub Submission) ValidationResult { return f(sub) }

// ChecklistItem is one requirement of a soil-carbon measurement standard.
type ChecklistItem struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Requirement string   `json:"requirement"`
	Description string   `json:"description"`
	Standard    string   `json:"standard"`
	Severity    Severity `json:"severity"`
	Rule        Rule     `json:"-"`
}

// ChecklistResult pairs an item with its outcome.
type ChecklistResult struct {
	Item   ChecklistItem    `json:"item"`
	Result ValidationResult `json:"result"`
}

func presence(ok bool) ValidationResult {
	if ok {
		return ResultCompliant
	}
	return ResultMissing
}

func inSpec(ok bool) ValidationResult {
	if ok {
		return ResultCompliant
	}
	return ResultOffSpec
}

var soilCarbonChecklist = []ChecklistItem{
	{
		ID:          "soc-depth",
		Category:    "Sampling",
		Requirement: "Sampling depth ≥ 30cm",
		Description: "VM0042 minimum. Deeper recommended for practices affecting deeper soils.",
		Standard:    "Verra VM0042 v2.2",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return inSpec(s.MaxDepthCm >= minDepthCm) }),
	},
	{
		ID:          "soc-lab-method",
		Category:    "Laboratory",
		Requirement: "Lab method documented",
		Description: "Dry combustion (Dumas, reference), wet oxidation (Walkley-Black with correction), or approved spectroscopic techniques (INS, LIBS, MIR, Vis-NIR) with documented uncertainty.",
		Standard:    "Verra VM0042 v2.2",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return presence(s.LabMethod != "") }),
	},
	{
		ID:          "soc-bulk-density",
		Category:    "Sampling",
		Requirement: "Bulk density measured or ESM approach",
		Description: "Bulk density must be directly measured or Equivalent Soil Mass (ESM) approach documented.",
		Standard:    "Verra VM0042 v2.2 / Agricarbon",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return presence(s.BulkDensityMeasured) }),
	},
	{
		ID:          "soc-georef",
		Category:    "Spatial",
		Requirement: "Sample locations georeferenced",
		Description: "GPS coordinates for all sampling locations.",
		Standard:    "VM0042",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return presence(s.GPSCoordinates) }),
	},
	{
		ID:          "soc-stratification",
		Category:    "Design",
		Requirement: "Stratification by soil type, practice, and cropping system",
		Description: "Sampling design must stratify by relevant factors.",
		Standard:    "VM0042",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return presence(s.StratificationDocumented) }),
	},
	{
		ID:          "soc-baseline-timing",
		Category:    "Temporal",
		Requirement: "Baseline within ±5 years of project start",
		Description: "Timing documented relative to project start (baseline within ±5 years of t=0).",
		Standard:    "VM0042",
		Severity:    SeverityRequired,
		Rule:        RuleFunc(baselineTiming),
	},
	{
		ID:          "soc-frequency",
		Category:    "Temporal",
		Requirement: "Verification frequency ≥ every 5 years",
		Description: "Minimum verification period per VM0042.",
		Standard:    "VM0042",
		Severity:    SeverityRequired,
		Rule: RuleFunc(func(s Submission) ValidationResult {
			return inSpec(s.VerificationFrequencyYears <= maxVerificationYears)
		}),
	},
	{
		ID:          "soc-qaqc",
		Category:    "Quality",
		Requirement: "QA/QC including lab duplicates and reference samples",
		Description: "Quality assurance protocols documented.",
		Standard:    "VM0042 / FAO",
		Severity:    SeverityRecommended,
		Rule:        RuleFunc(func(s Submission) ValidationResult { return presence(s.QAQCDocumented) }),
	},
	{
		ID:          "soc-statistical",
		Category:    "Design",
		Requirement: "Minimum 5 composite samples per stratum",
		Description: "Statistical adequacy per FAO guidelines.",
		Standard:    "FAO Voluntary Guidelines",
		Severity:    SeverityRequired,
		Rule: RuleFunc(func(s Submission) ValidationResult {
			return inSpec(s.SamplesPerStratum >= minSamplesPerStratum)
		}),
	},
}

func baselineTiming(s Submission) ValidationResult {
	if s.BaselineYear == 0 || s.ProjectStartYear == 0 {
		return ResultMissing
	}
	diff := s.BaselineYear - s.ProjectStartYear
	if diff < 0 {
		diff = -diff
	}
	return inSpec(diff <= maxBaselineOffsetYears)
}

// SoilCarbonChecklist returns the fixed soil-carbon monitoring checklist.
func SoilCarbonChecklist() []ChecklistItem {
	out := make([]ChecklistItem, len(soilCarbonChecklist))
	copy(out, soilCarbonChecklist)
	return out
}

// EvaluateChecklist runs every item's rule against the submission, in order.
func EvaluateChecklist(items []ChecklistItem, sub Submission) []ChecklistResult {
	results := make([]ChecklistResult, len(items))
	for i, item := range items {
		results[i] = ChecklistResult{Item: item, Result: item.Rule.Evaluate(sub)}
	}
	return results
}

// RunChecklist normalizes a form and evaluates the soil-carbon checklist.
func RunChecklist(form UploadFormData) []ChecklistResult {
	return EvaluateChecklist(soilCarbonChecklist, Normalize(form))
}

// ComputeScore weights compliant required items at 90 points and compliant
// recommended items at 10. With no recommended items the 10 points are
// granted; with no required items the score is 0.
func ComputeScore(results []ChecklistResult) int {
	var required, requiredOK, recommended, recommendedOK int
	for _, r := range results {
		switch r.Item.Severity {
		case SeverityRequired:
			required++
			if r.Result == ResultCompliant {
				requiredOK++
			}
		case SeverityRecommended:
			recommended++
			if r.Result == ResultCompliant {
				recommendedOK++
			}
		}
	}
	if required == 0 {
		return 0
	}

	score := float64(requiredOK) / float64(required) * requiredWeight
	if recommended > 0 {
		score += float64(recommendedOK) / float64(recommended) * recommendedWeight
	} else {
		score += recommendedWeight
	}
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

// ScoreLabel describes a compliance score for reviewers.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Claims-ready"
	case score >= 50:
		return "Needs attention"
	default:
		return "Significant gaps"
	}
}

// GroupByCategory buckets results by item category, keeping checklist order within each.
func GroupByCategory(results []ChecklistResult) map[string][]ChecklistResult {
	groups := make(map[string][]ChecklistResult)
	for _, r := range results {
		groups[r.Item.Category] = append(groups[r.Item.Category], r)
	}
	return groups
}
