package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taxi-insights-api/config"
	"taxi-insights-api/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HotspotAlert is the message fanned out to alert subscribers whenever a
// demand hotspot is computed.
type HotspotAlert struct {
	Filters    string         `json:"filters"`
	Hotspot    models.Hotspot `json:"hotspot"`
	ComputedAt time.Time      `json:"computed_at"`
}

// AlertBus publishes hotspot alerts over redis pub/sub. A bus without a
// client is valid and silently drops everything.
type AlertBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

const pingAttempts = 5

func NewAlertBus(cfg config.RedisConfig, logger *zap.Logger) (*AlertBus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < pingAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return NewAlertBusWithClient(client, cfg.AlertChannel, logger), nil
		}
		logger.Warn("redis ping failed",
			zap.Int("attempt", i+1),
			zap.Int("of", pingAttempts),
			zap.Error(lastErr))
		if i < pingAttempts-1 {
			time.Sleep(time.Second)
		}
	}
	_ = client.Close()

	return &AlertBus{channel: cfg.AlertChannel, logger: logger},
		fmt.Errorf("redis ping failed after %d attempts: %w", pingAttempts, lastErr)
}

// NewAlertBusWithClient wraps an existing client. A nil client yields a
// disabled bus.
func NewAlertBusWithClient(client *redis.Client, channel string, logger *zap.Logger) *AlertBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertBus{client: client, channel: channel, logger: logger}
}

func (b *AlertBus) Available() bool {
	return b != nil && b.client != nil
}

func (b *AlertBus) Channel() string {
	return b.channel
}

// PublishHotspot announces h to every subscriber. A nil hotspot means there
// is nothing to alert on and is not published.
func (b *AlertBus) PublishHotspot(ctx context.Context, filters string, h *models.Hotspot) error {
	if !b.Available() || h == nil {
		return nil
	}
	data, err := json.Marshal(HotspotAlert{
		Filters:    filters,
		Hotspot:    *h,
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish hotspot: %w", err)
	}
	b.logger.Debug("hotspot published",
		zap.String("channel", b.channel),
		zap.String("filters", filters),
		zap.Int64("total_trips", h.TotalTrips))
	return nil
}

// Subscribe returns nil when the bus is disabled.
func (b *AlertBus) Subscribe(ctx context.Context) *redis.PubSub {
	if !b.Available() {
		return nil
	}
	return b.client.Subscribe(ctx, b.channel)
}

func (b *AlertBus) Close() error {
	if !b.Available() {
		return nil
	}
	return b.client.Close()
}
