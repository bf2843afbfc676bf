package store

import (
	"context"
	"fmt"

	"taxi-insights-api/analytics"
	"taxi-insights-api/config"
	"taxi-insights-api/filters"
	"taxi-insights-api/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const elapsedSeconds = "EXTRACT(EPOCH FROM (tpep_dropoff_datetime - tpep_pickup_datetime))"

// Postgres aggregates trips inside the database. Each call opens its own
// session bound to ctx, so the pooled connection it uses is returned as
// soon as the query finishes.
type Postgres struct {
	db *gorm.DB
}

var _ analytics.Store = (*Postgres)(nil)

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func OpenPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Info("database connected", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return NewPostgres(db), nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// trips scopes tx to the trips table and applies where as one condition.
func trips(tx *gorm.DB, where filters.Set) *gorm.DB {
	tx = tx.Model(&models.Trip{})
	if clause := where.Render(); !clause.Empty() {
		tx = tx.Where(clause.SQL, clause.Args...)
	}
	return tx
}

func summaryQuery(tx *gorm.DB, where filters.Set) *gorm.DB {
	return trips(tx, where).Select(`AVG(trip_distance) AS avg_distance,
		AVG(total_amount) AS avg_price,
		AVG(tip_amount) AS avg_tip,
		AVG(fare_amount / NULLIF(trip_distance, 0)) AS price_per_mile,
		AVG(trip_distance / NULLIF(` + elapsedSeconds + ` / 3600, 0)) AS avg_speed,
		COUNT(*) AS total_trips`)
}

func periodQuery(tx *gorm.DB, where filters.Set, peakHours []int) *gorm.DB {
	return trips(tx, where).
		Select(`EXTRACT(HOUR FROM tpep_pickup_datetime) IN ? AS peak,
			COUNT(*) AS trips,
			COALESCE(SUM(trip_distance), 0) AS sum_distance,
			COALESCE(SUM(total_amount), 0) AS sum_total`, peakHours).
		Group("peak")
}

func hourlyQuery(tx *gorm.DB, where filters.Set) *gorm.DB {
	return trips(tx, where).
		Select("CAST(EXTRACT(HOUR FROM tpep_pickup_datetime) AS INTEGER) AS hour, COUNT(*) AS count").
		Group("hour").
		Order("hour")
}

func zoneQuery(tx *gorm.DB, where filters.Set) *gorm.DB {
	return trips(tx, where).
		Select(`"PULocationID" AS zone_id, COUNT(*) AS count`).
		Group("zone_id")
}

func binQuery(tx *gorm.DB, where filters.Set, width float64) *gorm.DB {
	return trips(tx, where).
		Select("FLOOR(total_amount / ?) * ? AS bin, COUNT(*) AS count", width, width).
		Group("bin").
		Order("bin")
}

func dayHourQuery(tx *gorm.DB, where filters.Set) *gorm.DB {
	return trips(tx, where).
		Select(`CAST(EXTRACT(DOW FROM tpep_pickup_datetime) AS INTEGER) AS day_num,
			CAST(EXTRACT(HOUR FROM tpep_pickup_datetime) AS INTEGER) AS hour_num,
			COUNT(*) AS total_trips`).
		Group("day_num, hour_num")
}

func routeQuery(tx *gorm.DB, where filters.Set) *gorm.DB {
	return trips(tx, where).
		Select(`AVG(total_amount) AS avg_total,
			AVG(` + elapsedSeconds + ` / 60) AS avg_minutes,
			COUNT(*) AS trips`)
}

func (p *Postgres) Summary(ctx context.Context, where filters.Set) (models.Summary, error) {
	var out models.Summary
	err := summaryQuery(p.db.WithContext(ctx), where).Scan(&out).Error
	return out, err
}

func (p *Postgres) PeriodTotals(ctx context.Context, where filters.Set, peakHours []int) ([]analytics.PeriodTotals, error) {
	var out []analytics.PeriodTotals
	err := periodQuery(p.db.WithContext(ctx), where, peakHours).Scan(&out).Error
	return out, err
}

func (p *Postgres) HourlyCounts(ctx context.Context, where filters.Set) ([]models.HourlyCount, error) {
	var out []models.HourlyCount
	err := hourlyQuery(p.db.WithContext(ctx), where).Scan(&out).Error
	return out, err
}

func (p *Postgres) ZoneCounts(ctx context.Context, where filters.Set) ([]models.ZoneCount, error) {
	var out []models.ZoneCount
	err := zoneQuery(p.db.WithContext(ctx), where).Scan(&out).Error
	return out, err
}

func (p *Postgres) PriceBins(ctx context.Context, where filters.Set, width float64) ([]analytics.BinCount, error) {
	var out []analytics.BinCount
	err := binQuery(p.db.WithContext(ctx), where, width).Scan(&out).Error
	return out, err
}

func (p *Postgres) DayHourCounts(ctx context.Context, where filters.Set) ([]models.Hotspot, error) {
	var out []models.Hotspot
	err := dayHourQuery(p.db.WithContext(ctx), where).Scan(&out).Error
	return out, err
}

func (p *Postgres) RouteStats(ctx context.Context, where filters.Set) (analytics.RouteStats, error) {
	var out analytics.RouteStats
	err := routeQuery(p.db.WithContext(ctx), where).Scan(&out).Error
	return out, err
}
