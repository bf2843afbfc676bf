// Package cmd provides the insights command line client.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"taxi-insights-api/analytics"
	"taxi-insights-api/config"
	"taxi-insights-api/filters"
	"taxi-insights-api/logging"
	"taxi-insights-api/services"
	"taxi-insights-api/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	day       string
	timeOfDay string
	month     string
	backend   string
	csvPath   string
	verbose   bool
}

func (o *options) spec() filters.Spec {
	return filters.Normalize(o.day, o.timeOfDay, o.month)
}

// env is what a subcommand needs once the store is open.
type env struct {
	cfg    *config.Config
	svc    *analytics.Service
	logger *zap.Logger
}

// NewRootCmd builds the command tree. Every call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "insights",
		Short: "Query taxi trip analytics",
		Long: `insights runs the dashboard's analytics against a trip store and prints
the result as JSON.

Examples:
  insights kpis --day weekend --time night
  insights top-zones --month 3 --csv trips.csv
  insights predict --from 132 --to 236`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.day, "day", "all", "day filter: all, weekday, weekend or 0-6 (0=Sunday)")
	pf.StringVar(&opts.timeOfDay, "time", "all", "time filter: all, morning, afternoon or night")
	pf.StringVar(&opts.month, "month", "all", "month filter: all or 1-12")
	pf.StringVar(&opts.backend, "backend", "", "trip store: postgres or memory (default from STORE_BACKEND)")
	pf.StringVar(&opts.csvPath, "csv", "", "trips CSV for the memory backend (default from TRIPS_CSV)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		queryCmd(opts, "kpis", "Average distance, price, tip, price per mile and speed",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.Summary(ctx, spec) }),
		queryCmd(opts, "peak-valley", "Distance and weighted price per mile in rush versus off-peak hours",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.PeakValley(ctx, spec) }),
		queryCmd(opts, "hourly", "Trip volume per pickup hour",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.HourlyVolume(ctx, spec) }),
		queryCmd(opts, "zones", "Trip count per pickup zone",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.ZoneCounts(ctx, spec) }),
		queryCmd(opts, "histogram", "Distribution of total charges under $100",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.Histogram(ctx, spec) }),
		queryCmd(opts, "top-zones", "The five busiest pickup zones",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) { return e.svc.TopZones(ctx, spec) }),
		queryCmd(opts, "dashboard", "Every filtered family at once",
			func(ctx context.Context, e env, spec filters.Spec) (any, error) {
				return e.svc.Dashboard(ctx, spec, e.cfg.Server.DashboardConcurrency), nil
			}),
		alertCmd(opts),
		predictCmd(opts),
	)
	return root
}

type queryFunc func(ctx context.Context, e env, spec filters.Spec) (any, error)

func queryCmd(opts *options, use, short string, q queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, q)
		},
	}
}

// run opens the configured store, runs q and prints its result.
func (o *options) run(cmd *cobra.Command, q queryFunc) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.csvPath != "" {
		cfg.Store.TripsCSV = o.csvPath
		cfg.Store.Backend = "memory"
	}
	if o.backend != "" {
		cfg.Store.Backend = o.backend
	}
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "warn"
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	logger := logging.New(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	backend, err := store.Open(cfg.Store, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := cmd.Context()
	if cfg.Server.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.QueryTimeout)
		defer cancel()
	}

	result, err := q(ctx, env{cfg: cfg, svc: analytics.NewService(backend, logger), logger: logger}, o.spec())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func alertCmd(opts *options) *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "The busiest day of week and hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e env, spec filters.Spec) (any, error) {
				hotspot, err := e.svc.Hotspot(ctx, spec)
				if err != nil || !publish || hotspot == nil {
					return hotspot, err
				}
				bus, err := services.NewAlertBus(e.cfg.Redis, e.logger)
				if err != nil {
					return nil, err
				}
				defer bus.Close()
				return hotspot, bus.PublishHotspot(ctx, spec.String(), hotspot)
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also publish the hotspot to the redis alert channel")
	return cmd
}

func predictCmd(opts *options) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate price and duration between two zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, dest, err := analytics.ParseRoute(from, to)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, e env, _ filters.Spec) (any, error) {
				return e.svc.Predict(ctx, origin, dest)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "pickup zone id")
	cmd.Flags().StringVar(&to, "to", "", "dropoff zone id")
	return cmd
}
