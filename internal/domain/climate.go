package domain

import (
	"sort"
	"time"
)

const (
	// droughtStreakDays is the number of consecutive dry days that makes a drought event.
	droughtStreakDays = 30
	// droughtDryFraction marks a day dry when it receives less than this share of normal daily precipitation.
	droughtDryFraction = 0.5
	// growingTempThreshold is the mean daily temperature (°C) above which a day counts toward the growing season.
	growingTempThreshold = 5.0
	// defaultWindowYears is the look-back used when a series carries no dates.
	defaultWindowYears = 5
)

// DailyObservation is one day of provider climate data. Nil fields are
// missing sensor readings.
type DailyObservation struct {
	Date               time.Time `json:"date"`
	TempMean           *float64  `json:"temp_mean"`
	TempMin            *float64  `json:"temp_min"`
	TempMax            *float64  `json:"temp_max"`
	Precipitation      *float64  `json:"precipitation"`
	Evapotranspiration *float64  `json:"evapotranspiration"`
}

// ClimateSeries is a chronologically ordered daily record for one location.
type ClimateSeries struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Days      []DailyObservation `json:"days"`
}

// MonthlyClimate aggregates one calendar month of a series.
type MonthlyClimate struct {
	Month         string  `json:"month"` // YYYY-MM
	Year          int     `json:"year"`
	TempMean      float64 `json:"temp_mean"`
	TempMin       float64 `json:"temp_min"`
	TempMax       float64 `json:"temp_max"`
	Precipitation float64 `json:"precipitation"`
}

// AnnualTotal is the precipitation sum for one calendar year.
type AnnualTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// YearRange is the inclusive span of calendar years covered by a series.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ProcessedClimate is the derived summary of a ClimateSeries.
type ProcessedClimate struct {
	MeanTemp           float64          `json:"mean_temp"`
	AnnualPrecip       float64          `json:"annual_precip"`
	DroughtEvents      int              `json:"drought_events"`
	GrowingSeasonDays  int              `json:"growing_season_days"`
	PrecipTrend        float64          `json:"precip_trend"` // mm/yr
	TempTrend          float64          `json:"temp_trend"`   // °C/yr
	MonthlyData        []MonthlyClimate `json:"monthly_data"`
	AnnualPrecipTotals []AnnualTotal    `json:"annual_precip_totals"`
	YearRange          YearRange        `json:"year_range"`
}

// ProcessClimate reduces a daily series to monthly and annual statistics,
// trend slopes, drought events and growing season length. It never fails:
// an empty series yields zeros, empty sequences and the default year window.
func ProcessClimate(series ClimateSeries) ProcessedClimate {
	days := series.Days

	totals := annualPrecipTotals(days)
	totalValues := make([]float64, len(totals))
	years := make([]float64, len(totals))
	for i, t := range totals {
		totalValues[i] = t.Total
		years[i] = float64(t.Year)
	}
	annualPrecip := mean(totalValues)

	tempYears, tempMeans := annualMeanTemps(days)

	return ProcessedClimate{
		MeanTemp:           Round(mean(nonNil(days, func(d DailyObservation) *float64 { return d.TempMean })), 1),
		AnnualPrecip:       annualPrecip,
		DroughtEvents:      countDroughtEvents(days, annualPrecip),
		GrowingSeasonDays:  growingSeasonDays(days),
		PrecipTrend:        Round(olsSlope(years, totalValues), 1),
		TempTrend:          Round(olsSlope(tempYears, tempMeans), 2),
		MonthlyData:        monthlyAggregates(days),
		AnnualPrecipTotals: totals,
		YearRange:          yearRange(totals),
	}
}

func nonNil(days []DailyObservation, field func(DailyObservation) *float64) []float64 {
	out := make([]float64, 0, len(days))
	for _, d := range days {
		if v := field(d); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// annualPrecipTotals sums precipitation per calendar year, ascending by year.
func annualPrecipTotals(days []DailyObservation) []AnnualTotal {
	byYear := make(map[int]float64)
	for _, d := range days {
		byYear[d.Date.Year()] += valueOrZero(d.Precipitation)
	}
	totals := make([]AnnualTotal, 0, len(byYear))
	for y, total := range byYear {
		totals = append(totals, AnnualTotal{Year: y, Total: Round(total, 1)})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Year < totals[j].Year })
	return totals
}

// annualMeanTemps returns (year, mean daily temperature) pairs for years with
// at least one non-null reading, ascending by year.
func annualMeanTemps(days []DailyObservation) ([]float64, []float64) {
	byYear := make(map[int][]float64)
	for _, d := range days {
		if d.TempMean != nil {
			byYear[d.Date.Year()] = append(byYear[d.Date.Year()], *d.TempMean)
		}
	}
	keys := make([]int, 0, len(byYear))
	for y := range byYear {
		keys = append(keys, y)
	}
	sort.Ints(keys)

	xs := make([]float64, len(keys))
	ys := make([]float64, len(keys))
	for i, y := range keys {
		xs[i] = float64(y)
		ys[i] = mean(byYear[y])
	}
	return xs, ys
}

type monthBucket struct {
	temps, mins, maxs []float64
	precip            float64
}

func monthlyAggregates(days []DailyObservation) []MonthlyClimate {
	buckets := make(map[string]*monthBucket)
	for _, d := range days {
		key := d.Date.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &monthBucket{}
			buckets[key] = b
		}
		if d.TempMean != nil {
			b.temps = append(b.temps, *d.TempMean)
		}
		if d.TempMin != nil {
			b.mins = append(b.mins, *d.TempMin)
		}
		if d.TempMax != nil {
			b.maxs = append(b.maxs, *d.TempMax)
		}
		b.precip += valueOrZero(d.Precipitation)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthlyClimate, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		t, _ := time.Parse("2006-01", k)
		out = append(out, MonthlyClimate{
			Month:         k,
			Year:          t.Year(),
			TempMean:      Round(mean(b.temps), 1),
			TempMin:       Round(mean(b.mins), 1),
			TempMax:       Round(mean(b.maxs), 1),
			Precipitation: Round(b.precip, 0),
		})
	}
	return out
}

// countDroughtEvents counts runs of at least 30 consecutive days receiving
// less than half the normal daily precipitation. A run is counted once, at
// the moment it reaches 30 days, however long it continues afterwards.
func countDroughtEvents(days []DailyObservation, annualPrecip float64) int {
	threshold := annualPrecip / 365 * droughtDryFraction
	events, streak := 0, 0
	for _, d := range days {
		if valueOrZero(d.Precipitation) < threshold {
			streak++
			if streak == droughtStreakDays {
				events++
			}
			continue
		}
		streak = 0
	}
	return events
}

// growingSeasonDays averages, across calendar years, the longest run of days
// with mean temperature above 5°C. Runs do not carry across a year boundary.
func growingSeasonDays(days []DailyObservation) int {
	longest := make(map[int]int)
	streak, currentYear := 0, 0
	for i, d := range days {
		y := d.Date.Year()
		if i == 0 || y != currentYear {
			currentYear = y
			streak = 0
			if _, ok := longest[y]; !ok {
				longest[y] = 0
			}
		}
		if d.TempMean != nil && *d.TempMean > growingTempThreshold {
			streak++
			if streak > longest[y] {
				longest[y] = streak
			}
			continue
		}
		streak = 0
	}

	if len(longest) == 0 {
		return 0
	}
	var sum float64
	for _, n := range longest {
		sum += float64(n)
	}
	return int(Round(sum/float64(len(longest)), 0))
}

// olsSlope is the ordinary least-squares slope of ys over xs. It returns 0
// for fewer than two points or when xs has no variance.
func olsSlope(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var num, den float64
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func yearRange(totals []AnnualTotal) YearRange {
	if len(totals) == 0 {
		now := clock.Now().Year()
		return YearRange{Start: now - defaultWindowYears, End: now}
	}
	// totals are sorted by year
	return YearRange{Start: totals[0].Year, End: totals[len(totals)-1].Year}
}

// FilterMonths returns the monthly records whose key falls within
// [start, end], both given as YYYY-MM. An empty bound is open.
func FilterMonths(months []MonthlyClimate, start, end string) []MonthlyClimate {
	out := make([]MonthlyClimate, 0, len(months))
	for _, m := range months {
		if start != "" && m.Month < start {
			continue
		}
		if end != "" && m.Month > end {
			continue
		}
		out = append(out, m)
	}
	return out
}
