package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taxi-insights-api/filters"
	"taxi-insights-api/models"
)

// ErrInvalidInput marks a request rejected before any query ran.
var ErrInvalidInput = errors.New("invalid input")

// ParseRoute validates raw origin and destination zone ids.
func ParseRoute(from, to string) (int, int, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return 0, 0, fmt.Errorf("%w: both from and to zones are required", ErrInvalidInput)
	}
	origin, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: from zone %q is not an integer", ErrInvalidInput, from)
	}
	dest, err := strconv.Atoi(to)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: to zone %q is not an integer", ErrInvalidInput, to)
	}
	return origin, dest, nil
}

// Predict estimates price and duration for a trip from origin to dest.
// It uses trips on the exact route when there are any, otherwise all trips
// leaving origin, otherwise every trip. Only the exact route reports its
// sample count. The global tier assumes the store holds at least one trip
// with a positive distance; if not, the estimate's averages are nil.
func (s *Service) Predict(ctx context.Context, origin, dest int) (models.Estimate, error) {
	est, err := run(s, "predict", func() (models.Estimate, error) {
		exact, err := s.store.RouteStats(ctx, filters.Set{}.With(
			filters.Eq(filters.PickupZone, float64(origin)),
			filters.Eq(filters.DropoffZone, float64(dest)),
			positiveDistance,
		))
		if err != nil {
			return models.Estimate{}, fmt.Errorf("exact route: %w", err)
		}
		if exact.Trips > 0 {
			return estimate(exact, exact.Trips, models.TierExactRoute), nil
		}

		fromOrigin, err := s.store.RouteStats(ctx, filters.Set{}.With(
			filters.Eq(filters.PickupZone, float64(origin)),
			positiveDistance,
		))
		if err != nil {
			return models.Estimate{}, fmt.Errorf("origin only: %w", err)
		}
		if fromOrigin.AvgTotal != nil {
			return estimate(fromOrigin, 0, models.TierOriginOnly), nil
		}

		global, err := s.store.RouteStats(ctx, filters.Set{}.With(positiveDistance))
		if err != nil {
			return models.Estimate{}, fmt.Errorf("global average: %w", err)
		}
		return estimate(global, 0, models.TierGlobalAverage), nil
	})
	if err == nil {
		predictionTiers.WithLabelValues(string(est.Type)).Inc()
	}
	return est, err
}

func estimate(stats RouteStats, samples int64, tier models.PredictionTier) models.Estimate {
	return models.Estimate{
		PredictedPrice: stats.AvgTotal,
		DurationMin:    stats.AvgMinutes,
		Samples:        samples,
		Type:           tier,
	}
}
