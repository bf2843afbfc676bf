package analytics

import (
	"context"
	"sync"

	"taxi-insights-api/filters"
	"taxi-insights-api/models"

	"golang.org/x/sync/errgroup"
)

// Dashboard runs every filtered query family in parallel, at most
// concurrency at a time (unbounded when concurrency <= 0). A failing family
// is reported in Errors and does not cancel the others.
func (s *Service) Dashboard(ctx context.Context, spec filters.Spec, concurrency int) models.Dashboard {
	var (
		d  models.Dashboard
		mu sync.Mutex
		g  errgroup.Group
	)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	fail := func(family string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if d.Errors == nil {
			d.Errors = make(map[string]string)
		}
		d.Errors[family] = "database query failed"
	}

	g.Go(func() error {
		kpis, err := s.Summary(ctx, spec)
		if err == nil {
			d.KPIs = &kpis
		}
		fail("kpis", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.PeakValley, err = s.PeakValley(ctx, spec)
		fail("peak_valley", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.Hourly, err = s.HourlyVolume(ctx, spec)
		fail("hourly", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.Zones, err = s.ZoneCounts(ctx, spec)
		fail("zones", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.Histogram, err = s.Histogram(ctx, spec)
		fail("histogram", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.TopZones, err = s.TopZones(ctx, spec)
		fail("top_zones", err)
		return nil
	})
	g.Go(func() error {
		var err error
		d.Alert, err = s.Hotspot(ctx, spec)
		fail("alert", err)
		return nil
	})

	_ = g.Wait()
	return d
}
