// Package domain holds the analytical core of the fund intelligence service:
// pure, synchronous functions that turn raw environmental and monitoring
// records into restoration assessments and compliance scores.
//
// # Data Sources
//
// Inputs arrive from three upstream feeds, each wrapped by an adapter:
//
//	Climate:   Open-Meteo ERA5 archive, daily mean/min/max temperature (°C),
//	           precipitation (mm) and FAO reference evapotranspiration (mm).
//	           Any field may be null on a given day.
//	Soil:      ISRIC SoilGrids 2.0, property means at five standard depth
//	           bands (0-5, 5-15, 15-30, 30-60, 60-100 cm).
//	Commodity: World Bank indicator series, or a static context paragraph
//	           for commodities without a public price series.
//
// The core never performs I/O. Missing data is treated as zero or absence,
// never as an error.
//
// # Units
//
//	SOC stock:      tonnes of carbon per hectare (t C/ha), 0-30 cm
//	SOC content:    g/kg
//	Bulk density:   g/cm³
//	CO2 equivalent: t CO2e/ha, converted from carbon by the 44/12 ratio (3.67)
//	Carbon value:   USD/ha at a fixed $15 per t CO2e
//
// # Climate Zones
//
// Derived solely from mean annual precipitation:
//
//	<250 mm arid | <500 mm semi_arid | <1000 mm sub_humid | else humid
//
// # Rule Engines
//
// The compliance checklist and the contextual interpretation engine are both
// ordered lists of independent predicates. Every rule is evaluated on every
// call, and results are returned in list order. See [RunChecklist] and
// [GenerateInterpretation].
package domain
