// Package analytics computes the dashboard statistics and fare predictions
// on top of a Store.
package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"taxi-insights-api/filters"
	"taxi-insights-api/models"

	"go.uber.org/zap"
)

const (
	HistogramWidth = 10.0
	HistogramMax   = 100.0
	TopZonesLimit  = 5
)

// PeakHours are the pickup hours counted as rush hour.
var PeakHours = []int{7, 8, 9, 17, 18, 19}

var (
	kpiSanity        = []filters.Predicate{filters.DropoffAfterPickup(), filters.Greater(filters.Distance, 0.1)}
	positiveDistance = filters.Greater(filters.Distance, 0)
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// run times one query family and wraps and logs its failure.
func run[T any](s *Service, family string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	queryDuration.WithLabelValues(family).Observe(time.Since(start).Seconds())
	if err != nil {
		queryFailures.WithLabelValues(family).Inc()
		s.logger.Error("query failed", zap.String("family", family), zap.Error(err))
		var zero T
		return zero, fmt.Errorf("%s: %w", family, err)
	}
	return v, nil
}

func (s *Service) Summary(ctx context.Context, spec filters.Spec) (models.Summary, error) {
	return run(s, "kpis", func() (models.Summary, error) {
		return s.store.Summary(ctx, filters.Compile(spec, kpiSanity...))
	})
}

// PeakValley reports average distance and distance-weighted price per mile
// for rush and off-peak hours. The weighted figure is sum(total)/sum(distance),
// so short expensive trips do not dominate it.
func (s *Service) PeakValley(ctx context.Context, spec filters.Spec) ([]models.PeriodStats, error) {
	return run(s, "peak_valley", func() ([]models.PeriodStats, error) {
		totals, err := s.store.PeriodTotals(ctx, filters.Compile(spec, positiveDistance), PeakHours)
		if err != nil {
			return nil, err
		}
		return periodStats(totals), nil
	})
}

func periodStats(totals []PeriodTotals) []models.PeriodStats {
	totals = slices.Clone(totals)
	slices.SortFunc(totals, func(a, b PeriodTotals) int {
		if a.Peak == b.Peak {
			return 0
		}
		if a.Peak {
			return -1
		}
		return 1
	})

	out := make([]models.PeriodStats, 0, len(totals))
	for _, t := range totals {
		if t.Trips == 0 {
			continue
		}
		period := models.PeriodValley
		if t.Peak {
			period = models.PeriodPeak
		}
		out = append(out, models.PeriodStats{
			Period:               period,
			AvgDistance:          ratio(t.SumDistance, float64(t.Trips)),
			WeightedPricePerMile: ratio(t.SumTotal, t.SumDistance),
		})
	}
	return out
}

func (s *Service) HourlyVolume(ctx context.Context, spec filters.Spec) ([]models.HourlyCount, error) {
	return run(s, "hourly", func() ([]models.HourlyCount, error) {
		counts, err := s.store.HourlyCounts(ctx, filters.Compile(spec))
		if err != nil {
			return nil, err
		}
		slices.SortFunc(counts, func(a, b models.HourlyCount) int { return cmp.Compare(a.Hour, b.Hour) })
		return counts, nil
	})
}

// ZoneCounts maps every pickup zone id to its trip count.
func (s *Service) ZoneCounts(ctx context.Context, spec filters.Spec) (map[string]int64, error) {
	return run(s, "zones", func() (map[string]int64, error) {
		counts, err := s.store.ZoneCounts(ctx, filters.Compile(spec))
		if err != nil {
			return nil, err
		}
		out := make(map[string]int64, len(counts))
		for _, c := range counts {
			out[strconv.Itoa(c.ZoneID)] = c.Count
		}
		return out, nil
	})
}

// Histogram buckets total charges in [0, 100) into $10 bins.
func (s *Service) Histogram(ctx context.Context, spec filters.Spec) ([]models.PriceBin, error) {
	return run(s, "histogram", func() ([]models.PriceBin, error) {
		where := filters.Compile(spec, filters.HalfOpen(filters.TotalAmount, 0, HistogramMax))
		bins, err := s.store.PriceBins(ctx, where, HistogramWidth)
		if err != nil {
			return nil, err
		}
		return labelBins(bins, HistogramWidth), nil
	})
}

func labelBins(bins []BinCount, width float64) []models.PriceBin {
	bins = slices.Clone(bins)
	slices.SortFunc(bins, func(a, b BinCount) int { return cmp.Compare(a.Bin, b.Bin) })
	out := make([]models.PriceBin, 0, len(bins))
	for _, b := range bins {
		if b.Count == 0 {
			continue
		}
		out = append(out, models.PriceBin{
			Range: fmt.Sprintf("$%s-%s", formatAmount(b.Bin), formatAmount(b.Bin+width)),
			Count: b.Count,
		})
	}
	return out
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Service) TopZones(ctx context.Context, spec filters.Spec) ([]models.ZoneCount, error) {
	return run(s, "top_zones", func() ([]models.ZoneCount, error) {
		counts, err := s.store.ZoneCounts(ctx, filters.Compile(spec))
		if err != nil {
			return nil, err
		}
		return RankZones(counts, TopZonesLimit), nil
	})
}

// RankZones orders zones by descending count, breaking ties by ascending
// zone id, and keeps at most limit entries.
func RankZones(counts []models.ZoneCount, limit int) []models.ZoneCount {
	ranked := slices.Clone(counts)
	slices.SortFunc(ranked, func(a, b models.ZoneCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ZoneID, b.ZoneID)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Hotspot returns the busiest (day of week, hour) pair, or nil when no trip
// matches.
func (s *Service) Hotspot(ctx context.Context, spec filters.Spec) (*models.Hotspot, error) {
	return run(s, "alert", func() (*models.Hotspot, error) {
		cells, err := s.store.DayHourCounts(ctx, filters.Compile(spec))
		if err != nil {
			return nil, err
		}
		return PickHotspot(cells), nil
	})
}

// PickHotspot returns the cell with the most trips. Ties go to the earliest
// day, then the earliest hour.
func PickHotspot(cells []models.Hotspot) *models.Hotspot {
	var best *models.Hotspot
	for i := range cells {
		c := cells[i]
		if c.TotalTrips <= 0 {
			continue
		}
		if best == nil || c.TotalTrips > best.TotalTrips ||
			(c.TotalTrips == best.TotalTrips && (c.DayNum < best.DayNum ||
				(c.DayNum == best.DayNum && c.HourNum < best.HourNum))) {
			best = &c
		}
	}
	return best
}

func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}
