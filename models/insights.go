package models

// Statistics that cannot be computed (empty subset, zero denominator) are
// nil pointers and serialize as JSON null.

type Summary struct {
	AvgDistance  *float64 `json:"avg_distance"`
	AvgPrice     *float64 `json:"avg_price"`
	AvgTip       *float64 `json:"avg_tip"`
	PricePerMile *float64 `json:"price_per_mile"`
	AvgSpeed     *float64 `json:"avg_speed"`
	TotalTrips   int64    `json:"total_trips"`
}

const (
	PeriodPeak   = "Horas Pico"
	PeriodValley = "Horas Valle"
)

type PeriodStats struct {
	Period               string   `json:"period"`
	AvgDistance          *float64 `json:"avg_distance"`
	WeightedPricePerMile *float64 `json:"weighted_price_per_mile"`
}

type HourlyCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type PriceBin struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

type ZoneCount struct {
	ZoneID int   `json:"zone_id"`
	Count  int64 `json:"count"`
}

type Hotspot struct {
	DayNum     int   `json:"day_num"`
	HourNum    int   `json:"hour_num"`
	TotalTrips int64 `json:"total_trips"`
}

// PredictionTier names the fallback stage that produced an Estimate.
type PredictionTier string

const (
	TierExactRoute    PredictionTier = "ExactRoute"
	TierOriginOnly    PredictionTier = "OriginOnly"
	TierGlobalAverage PredictionTier = "GlobalAverage"
)

type Estimate struct {
	PredictedPrice *float64       `json:"predicted_price"`
	DurationMin    *float64       `json:"duration_min"`
	Samples        int64          `json:"samples"`
	Type           PredictionTier `json:"type"`
}

// Dashboard bundles every filtered query family. A family that failed is
// left empty and named in Errors.
type Dashboard struct {
	KPIs       *Summary          `json:"kpis"`
	PeakValley []PeriodStats     `json:"peak_valley"`
	Hourly     []HourlyCount     `json:"hourly"`
	Zones      map[string]int64  `json:"zones"`
	Histogram  []PriceBin        `json:"histogram"`
	TopZones   []ZoneCount       `json:"top_zones"`
	Alert      *Hotspot          `json:"alert"`
	Errors     map[string]string `json:"errors,omitempty"`
}
