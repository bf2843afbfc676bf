package store

import (
	"strings"
	"testing"

	"taxi-insights-api/analytics"
	"taxi-insights-api/filters"
	"taxi-insights-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// dryRunDB never opens a connection; statements are only rendered.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost port=5432 user=taxi dbname=taxi_data sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func render(db *gorm.DB, build func(tx *gorm.DB) *gorm.DB) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return build(tx).Find(&[]map[string]any{})
	})
}

func TestPostgresQueriesEmitSingleWhere(t *testing.T) {
	db := dryRunDB(t)
	spec := filters.Spec{Day: filters.Weekends, Time: filters.Night, Month: 3}
	histogram := filters.Compile(spec, filters.HalfOpen(filters.TotalAmount, 0, analytics.HistogramMax))

	queries := map[string]string{
		"summary":  render(db, func(tx *gorm.DB) *gorm.DB { return summaryQuery(tx, filters.Compile(spec, filters.DropoffAfterPickup())) }),
		"period":   render(db, func(tx *gorm.DB) *gorm.DB { return periodQuery(tx, filters.Compile(spec), analytics.PeakHours) }),
		"hourly":   render(db, func(tx *gorm.DB) *gorm.DB { return hourlyQuery(tx, filters.Compile(spec)) }),
		"zones":    render(db, func(tx *gorm.DB) *gorm.DB { return zoneQuery(tx, filters.Compile(spec)) }),
		"bins":     render(db, func(tx *gorm.DB) *gorm.DB { return binQuery(tx, histogram, analytics.HistogramWidth) }),
		"day_hour": render(db, func(tx *gorm.DB) *gorm.DB { return dayHourQuery(tx, filters.Compile(spec)) }),
		"route":    render(db, func(tx *gorm.DB) *gorm.DB { return routeQuery(tx, filters.Compile(spec)) }),
	}
	for name, sql := range queries {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 1, strings.Count(sql, "WHERE"), sql)
			assert.Contains(t, sql, `FROM "trips"`)
			assert.Contains(t, sql, "EXTRACT(DOW FROM tpep_pickup_datetime) IN (0,6)")
		})
	}
	assert.Contains(t, queries["bins"], "total_amount < 100")
	assert.Contains(t, queries["period"], `GROUP BY "peak"`)
	assert.Contains(t, queries["hourly"], "ORDER BY hour")
}

func TestPostgresQueriesWithoutFilters(t *testing.T) {
	db := dryRunDB(t)
	sql := render(db, func(tx *gorm.DB) *gorm.DB { return zoneQuery(tx, filters.Compile(filters.Spec{})) })

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, `GROUP BY "zone_id"`)
}

func TestPostgresRouteQueryUsesZones(t *testing.T) {
	db := dryRunDB(t)
	where := filters.Set{}.With(
		filters.Eq(filters.PickupZone, 132),
		filters.Eq(filters.DropoffZone, 236),
		filters.Greater(filters.Distance, 0),
	)
	sql := render(db, func(tx *gorm.DB) *gorm.DB { return routeQuery(tx, where) })

	assert.Contains(t, sql, `"PULocationID" = 132`)
	assert.Contains(t, sql, `"DOLocationID" = 236`)
	assert.Contains(t, sql, "AS avg_minutes")
}

func TestTripTableName(t *testing.T) {
	assert.Equal(t, "trips", models.Trip{}.TableName())
}
