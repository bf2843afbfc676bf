package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taxi-insights-api/config"
	"taxi-insights-api/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) (*AlertBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bus := NewAlertBusWithClient(client, "taxi:alerts", nil)
	t.Cleanup(func() { _ = bus.Close() })
	return bus, mr
}

func TestPublishHotspotReachesSubscriber(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx := context.Background()

	sub := bus.Subscribe(ctx)
	require.NotNil(t, sub)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	h := &models.Hotspot{DayNum: 5, HourNum: 18, TotalTrips: 42}
	require.NoError(t, bus.PublishHotspot(ctx, "day=all time=all month=all", h))

	select {
	case msg := <-sub.Channel():
		var alert HotspotAlert
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &alert))
		assert.Equal(t, *h, alert.Hotspot)
		assert.Equal(t, "day=all time=all month=all", alert.Filters)
		assert.False(t, alert.ComputedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no alert received")
	}
}

func TestPublishNilHotspotIsSkipped(t *testing.T) {
	bus, mr := newTestBus(t)
	require.NoError(t, bus.PublishHotspot(context.Background(), "", nil))
	assert.Empty(t, mr.PubSubChannels(""))
}

func TestDisabledBusIsNoop(t *testing.T) {
	bus := NewAlertBusWithClient(nil, "taxi:alerts", nil)
	ctx := context.Background()

	assert.False(t, bus.Available())
	assert.NoError(t, bus.PublishHotspot(ctx, "", &models.Hotspot{TotalTrips: 1}))
	assert.Nil(t, bus.Subscribe(ctx))
	assert.NoError(t, bus.Close())
}

func TestNewAlertBusUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Server().Addr()
	mr.Close()

	bus, err := NewAlertBus(config.RedisConfig{
		Host:         addr.IP.String(),
		Port:         addr.Port,
		AlertChannel: "taxi:alerts",
	}, nil)
	require.Error(t, err)
	require.NotNil(t, bus)
	assert.False(t, bus.Available())
	assert.Equal(t, "taxi:alerts", bus.Channel())
}
