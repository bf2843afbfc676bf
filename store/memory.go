package store

import (
	"cmp"
	"context"
	"math"
	"slices"

	"taxi-insights-api/analytics"
	"taxi-insights-api/filters"
	"taxi-insights-api/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Memory serves trips held in process. Trips are never modified after
// construction, so a Memory is safe for concurrent use.
type Memory struct {
	trips []models.Trip
}

var _ analytics.Store = (*Memory)(nil)

func NewMemory(trips []models.Trip) *Memory {
	return &Memory{trips: slices.Clone(trips)}
}

func (m *Memory) Len() int { return len(m.trips) }

// each calls fn for every trip matching where, stopping early if ctx is done.
func (m *Memory) each(ctx context.Context, where filters.Set, fn func(models.Trip)) error {
	for i, t := range m.trips {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if where.Match(t) {
			fn(t)
		}
	}
	return ctx.Err()
}

func (m *Memory) Summary(ctx context.Context, where filters.Set) (models.Summary, error) {
	var dist, price, tip, perMile, speed []float64
	err := m.each(ctx, where, func(t models.Trip) {
		dist = append(dist, t.Distance)
		price = append(price, t.TotalAmount)
		tip = append(tip, t.TipAmount)
		if t.Distance != 0 {
			perMile = append(perMile, t.FareAmount/t.Distance)
		}
		if h := t.Duration().Hours(); h != 0 {
			speed = append(speed, t.Distance/h)
		}
	})
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summary{
		AvgDistance:  mean(dist),
		AvgPrice:     mean(price),
		AvgTip:       mean(tip),
		PricePerMile: mean(perMile),
		AvgSpeed:     mean(speed),
		TotalTrips:   int64(len(dist)),
	}, nil
}

func (m *Memory) PeriodTotals(ctx context.Context, where filters.Set, peakHours []int) ([]analytics.PeriodTotals, error) {
	type bucket struct{ dist, total []float64 }
	var peak, valley bucket
	err := m.each(ctx, where, func(t models.Trip) {
		b := &valley
		if slices.Contains(peakHours, t.PickupAt.Hour()) {
			b = &peak
		}
		b.dist = append(b.dist, t.Distance)
		b.total = append(b.total, t.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	var out []analytics.PeriodTotals
	for _, p := range []struct {
		peak bool
		b    bucket
	}{{true, peak}, {false, valley}} {
		if len(p.b.dist) == 0 {
			continue
		}
		out = append(out, analytics.PeriodTotals{
			Peak:        p.peak,
			Trips:       int64(len(p.b.dist)),
			SumDistance: floats.Sum(p.b.dist),
			SumTotal:    floats.Sum(p.b.total),
		})
	}
	return out, nil
}

func (m *Memory) HourlyCounts(ctx context.Context, where filters.Set) ([]models.HourlyCount, error) {
	counts := make(map[int]int64)
	if err := m.each(ctx, where, func(t models.Trip) { counts[t.PickupAt.Hour()]++ }); err != nil {
		return nil, err
	}
	out := make([]models.HourlyCount, 0, len(counts))
	for hour, n := range counts {
		out = append(out, models.HourlyCount{Hour: hour, Count: n})
	}
	slices.SortFunc(out, func(a, b models.HourlyCount) int { return cmp.Compare(a.Hour, b.Hour) })
	return out, nil
}

func (m *Memory) ZoneCounts(ctx context.Context, where filters.Set) ([]models.ZoneCount, error) {
	counts := make(map[int]int64)
	if err := m.each(ctx, where, func(t models.Trip) { counts[t.PickupZone]++ }); err != nil {
		return nil, err
	}
	out := make([]models.ZoneCount, 0, len(counts))
	for zone, n := range counts {
		out = append(out, models.ZoneCount{ZoneID: zone, Count: n})
	}
	slices.SortFunc(out, func(a, b models.ZoneCount) int { return cmp.Compare(a.ZoneID, b.ZoneID) })
	return out, nil
}

func (m *Memory) PriceBins(ctx context.Context, where filters.Set, width float64) ([]analytics.BinCount, error) {
	counts := make(map[float64]int64)
	err := m.each(ctx, where, func(t models.Trip) {
		counts[math.Floor(t.TotalAmount/width)*width]++
	})
	if err != nil {
		return nil, err
	}
	out := make([]analytics.BinCount, 0, len(counts))
	for bin, n := range counts {
		out = append(out, analytics.BinCount{Bin: bin, Count: n})
	}
	slices.SortFunc(out, func(a, b analytics.BinCount) int { return cmp.Compare(a.Bin, b.Bin) })
	return out, nil
}

func (m *Memory) DayHourCounts(ctx context.Context, where filters.Set) ([]models.Hotspot, error) {
	counts := make(map[[2]int]int64)
	err := m.each(ctx, where, func(t models.Trip) {
		counts[[2]int{int(t.PickupAt.Weekday()), t.PickupAt.Hour()}]++
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Hotspot, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.Hotspot{DayNum: k[0], HourNum: k[1], TotalTrips: n})
	}
	return out, nil
}

func (m *Memory) RouteStats(ctx context.Context, where filters.Set) (analytics.RouteStats, error) {
	var totals, minutes []float64
	err := m.each(ctx, where, func(t models.Trip) {
		totals = append(totals, t.TotalAmount)
		minutes = append(minutes, t.Duration().Minutes())
	})
	if err != nil {
		return analytics.RouteStats{}, err
	}
	return analytics.RouteStats{
		AvgTotal:   mean(totals),
		AvgMinutes: mean(minutes),
		Trips:      int64(len(totals)),
	}, nil
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v := stat.Mean(xs, nil)
	return &v
}

// Close is a no-op; it lets Memory stand in wherever a Backend is expected.
func (m *Memory) Close() error { return nil }
