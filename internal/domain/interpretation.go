package domain

import (
	"fmt"
	"math"
)

// InterpretationSeverity classifies a narrative finding.
type InterpretationSeverity string

const (
	SeverityPositive InterpretationSeverity = "positive"
	SeverityNeutral  InterpretationSeverity = "neutral"
	SeverityWarning  InterpretationSeverity = "warning"
	SeverityAlert    InterpretationSeverity = "alert"
)

const (
	severeDeficitPct    = -25.0
	mildDeficitPct      = -10.0
	wetSurplusPct       = 15.0
	warmAnomalyC        = 0.8
	moistureDeficitPct  = -20.0
	awaitingDataHeading = "Climate context ready: awaiting monitoring data"
)

// MonitoringContext is what is known about a monitoring period: the
// measured SOC change (nil until results are submitted) and the climate
// anomalies over the same months.
type MonitoringContext struct {
	SOCChange        *float64 `json:"soc_change"` // t C/ha from baseline
	SOCChangePercent *float64 `json:"soc_change_percent"`
	PrecipAnomaly    float64  `json:"precip_anomaly"` // % from baseline, negative is a deficit
	TempAnomaly      float64  `json:"temp_anomaly"`   // °C from baseline
	DroughtOccurred  bool     `json:"drought_occurred"`
	MoistureDeficit  bool     `json:"moisture_deficit"`
}

// Interpretation is one narrative finding.
type Interpretation struct {
	Headline string                 `json:"headline"`
	Body     string                 `json:"body"`
	Severity InterpretationSeverity `json:"severity"`
}

// NewMonitoringContext builds a context from measured SOC change, climate
// anomalies and the drought count of the processed record.
func NewMonitoringContext(socChange, socChangePercent *float64, anomaly ClimateAnomaly, droughtEvents int) MonitoringContext {
	return MonitoringContext{
		SOCChange:        socChange,
		SOCChangePercent: socChangePercent,
		PrecipAnomaly:    anomaly.PrecipAnomaly,
		TempAnomaly:      anomaly.TempAnomaly,
		DroughtOccurred:  droughtEvents > 0,
		MoistureDeficit:  anomaly.PrecipAnomaly < moistureDeficitPct,
	}
}

// contextFacts are the derived flags shared by every rule.
type contextFacts struct {
	MonitoringContext
	hasSOC, declined, increased bool
	severeDeficit, warm         bool
}

func (c contextFacts) socChange() float64 {
	if c.SOCChange == nil {
		return 0
	}
	return *c.SOCChange
}

// interpretationRule yields a finding when it applies.
type interpretationRule func(c contextFacts) (Interpretation, bool)

// interpretationRules are evaluated in order, every one on every call.
var interpretationRules = []interpretationRule{
	droughtDecline,
	deficitDecline,
	favorableIncrease,
	resilientIncrease,
	unexplainedDecline,
	temperatureAnomaly,
	precipitationAnomaly,
	awaitingMonitoringData,
}

// GenerateInterpretation classifies a monitoring context into narrative
// findings. Rules are independent: several may fire for the same input and
// results keep rule order.
func GenerateInterpretation(ctx MonitoringContext) []Interpretation {
	facts := contextFacts{
		MonitoringContext: ctx,
		hasSOC:            ctx.SOCChange != nil,
		severeDeficit:     ctx.PrecipAnomaly < severeDeficitPct,
		warm:              ctx.TempAnomaly > warmAnomalyC,
	}
	facts.declined = facts.hasSOC && *ctx.SOCChange < 0
	facts.increased = facts.hasSOC && *ctx.SOCChange > 0

	out := make([]Interpretation, 0, 3)
	for _, rule := range interpretationRules {
		if in, ok := rule(facts); ok {
			out = append(out, in)
		}
	}
	return out
}

func droughtDecline(c contextFacts) (Interpretation, bool) {
	if !c.declined || !c.DroughtOccurred {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: "SOC decline consistent with drought conditions",
		Body: fmt.Sprintf("The observed SOC decline of %.1f t C/ha is consistent with the severe drought conditions during this monitoring period. "+
			"Reduced soil moisture and elevated temperatures accelerate organic matter decomposition. This does not necessarily indicate practice failure.",
			math.Abs(c.socChange())),
		Severity: SeverityWarning,
	}, true
}

func deficitDecline(c contextFacts) (Interpretation, bool) {
	if !c.declined || !c.severeDeficit || c.DroughtOccurred {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: "SOC decline during significant precipitation deficit",
		Body: fmt.Sprintf("Precipitation was %.0f%% below the 5-year average during the monitoring period. "+
			"This moisture deficit likely contributed to reduced microbial activity and accelerated SOC decomposition, partially explaining the observed decline.",
			math.Abs(c.PrecipAnomaly)),
		Severity: SeverityWarning,
	}, true
}

func favorableIncrease(c contextFacts) (Interpretation, bool) {
	if !c.increased || c.DroughtOccurred || c.PrecipAnomaly <= mildDeficitPct {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: "SOC increase during favorable conditions",
		Body: fmt.Sprintf("The observed SOC increase of %.1f t C/ha occurred during relatively normal climate conditions, "+
			"suggesting that management practices are contributing to soil carbon accumulation as intended.",
			c.socChange()),
		Severity: SeverityPositive,
	}, true
}

func resilientIncrease(c contextFacts) (Interpretation, bool) {
	if !c.increased || (!c.DroughtOccurred && !c.severeDeficit) {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: "Positive SOC trend despite challenging conditions",
		Body: "Notably, soil carbon increased despite adverse climate conditions during the monitoring period. " +
			"This suggests the implemented management practices are effective at building soil carbon resilience even under climate stress.",
		Severity: SeverityPositive,
	}, true
}

func unexplainedDecline(c contextFacts) (Interpretation, bool) {
	if !c.declined || c.DroughtOccurred || c.PrecipAnomaly < mildDeficitPct || c.warm {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: "SOC decline during normal conditions warrants investigation",
		Body: "The observed SOC decline occurred during relatively normal climate conditions (precipitation within 10% of average, no drought events). " +
			"This may indicate that current management practices need review or adjustment.",
		Severity: SeverityAlert,
	}, true
}

func temperatureAnomaly(c contextFacts) (Interpretation, bool) {
	if !c.warm {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: fmt.Sprintf("Temperature anomaly: +%.1f°C above average", c.TempAnomaly),
		Body: "The monitoring period was significantly warmer than the 5-year baseline. " +
			"Elevated temperatures increase soil respiration rates, which can accelerate SOC decomposition regardless of management practices.",
		Severity: SeverityWarning,
	}, true
}

// precipitationAnomaly reports at most one of severe deficit, mild deficit or surplus.
func precipitationAnomaly(c contextFacts) (Interpretation, bool) {
	switch {
	case c.severeDeficit:
		return Interpretation{
			Headline: "Severe precipitation deficit",
			Body: fmt.Sprintf("This region received %.0f%% less precipitation than the 5-year average during the monitoring period. "+
				"Extended dry conditions reduce plant productivity and root carbon inputs to soil.", math.Abs(c.PrecipAnomaly)),
			Severity: SeverityAlert,
		}, true
	case c.PrecipAnomaly < mildDeficitPct:
		return Interpretation{
			Headline: "Mild precipitation deficit",
			Body: fmt.Sprintf("Precipitation was %.0f%% below the 5-year average. "+
				"This moderate deficit may have partially limited soil carbon accumulation.", math.Abs(c.PrecipAnomaly)),
			Severity: SeverityNeutral,
		}, true
	case c.PrecipAnomaly > wetSurplusPct:
		return Interpretation{
			Headline: "Above-average precipitation",
			Body: fmt.Sprintf("Precipitation was %.0f%% above the 5-year average. "+
				"Increased moisture typically supports plant growth and root carbon inputs, which is favorable for SOC accumulation.", c.PrecipAnomaly),
			Severity: SeverityPositive,
		}, true
	default:
		return Interpretation{}, false
	}
}

func awaitingMonitoringData(c contextFacts) (Interpretation, bool) {
	if c.hasSOC {
		return Interpretation{}, false
	}
	return Interpretation{
		Headline: awaitingDataHeading,
		Body: "Upload soil carbon monitoring results to generate a full contextual interpretation " +
			"comparing your field data against the environmental conditions during the monitoring period.",
		Severity: SeverityNeutral,
	}, true
}
