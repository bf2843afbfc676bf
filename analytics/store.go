package analytics

import (
	"context"

	"taxi-insights-api/filters"
	"taxi-insights-api/models"
)

// Store is a read-only view over trip records. Every method aggregates the
// trips matching where; ratios, ranking and fallbacks are left to Service.
type Store interface {
	// Summary returns per-trip averages. Ratios whose denominator is zero
	// are skipped for that trip; averages over no trips are nil.
	Summary(ctx context.Context, where filters.Set) (models.Summary, error)
	// PeriodTotals splits trips by whether the pickup hour is in peakHours.
	// Buckets without trips are omitted.
	PeriodTotals(ctx context.Context, where filters.Set, peakHours []int) ([]PeriodTotals, error)
	HourlyCounts(ctx context.Context, where filters.Set) ([]models.HourlyCount, error)
	ZoneCounts(ctx context.Context, where filters.Set) ([]models.ZoneCount, error)
	// PriceBins counts trips per floor(total_amount/width)*width.
	PriceBins(ctx context.Context, where filters.Set, width float64) ([]BinCount, error)
	DayHourCounts(ctx context.Context, where filters.Set) ([]models.Hotspot, error)
	RouteStats(ctx context.Context, where filters.Set) (RouteStats, error)
}

type PeriodTotals struct {
	Peak        bool
	Trips       int64
	SumDistance float64
	SumTotal    float64
}

type BinCount struct {
	Bin   float64
	Count int64
}

// RouteStats averages total charge and elapsed minutes. Both averages are
// nil when Trips is zero.
type RouteStats struct {
	AvgTotal   *float64
	AvgMinutes *float64
	Trips      int64
}
