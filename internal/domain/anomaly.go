package domain

// ClimateAnomaly is the deviation of a monitoring window from the
// same calendar months of the baseline record.
type ClimateAnomaly struct {
	PrecipAnomaly float64 `json:"precip_anomaly"` // percent
	TempAnomaly   float64 `json:"temp_anomaly"`   // °C
}

type calendarMonthBaseline struct {
	temp, precip float64
}

// ComputeAnomalies compares a monitoring window against the baseline built
// from all months in the record, grouped by calendar month (ignoring year).
// Monitoring months with no baseline counterpart are skipped. Each monitoring
// month contributes its calendar month's mean precipitation once to the
// baseline-equivalent total.
func ComputeAnomalies(monitoring, baseline []MonthlyClimate) ClimateAnomaly {
	if len(monitoring) == 0 || len(baseline) == 0 {
		return ClimateAnomaly{}
	}

	temps := make(map[string][]float64)
	precips := make(map[string][]float64)
	for _, m := range baseline {
		cm := calendarMonth(m.Month)
		temps[cm] = append(temps[cm], m.TempMean)
		precips[cm] = append(precips[cm], m.Precipitation)
	}
	avg := make(map[string]calendarMonthBaseline, len(temps))
	for cm := range temps {
		avg[cm] = calendarMonthBaseline{temp: mean(temps[cm]), precip: mean(precips[cm])}
	}

	var totalMonitoring, totalBaseline float64
	diffs := make([]float64, 0, len(monitoring))
	for _, m := range monitoring {
		b, ok := avg[calendarMonth(m.Month)]
		if !ok {
			continue
		}
		totalMonitoring += m.Precipitation
		totalBaseline += b.precip
		diffs = append(diffs, m.TempMean-b.temp)
	}

	var precipAnomaly float64
	if totalBaseline > 0 {
		precipAnomaly = (totalMonitoring - totalBaseline) / totalBaseline * 100
	}
	return ClimateAnomaly{
		PrecipAnomaly: Round(precipAnomaly, 1),
		TempAnomaly:   Round(mean(diffs), 2),
	}
}

// calendarMonth extracts MM from a YYYY-MM key.
func calendarMonth(key string) string {
	if len(key) < 7 {
		return key
	}
	return key[5:7]
}
