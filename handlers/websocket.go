package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"taxi-insights-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AlertWebSocket streams every hotspot published on the alert bus to the
// connected client.
func AlertWebSocket(alerts *services.AlertBus, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !alerts.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert stream unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := alerts.Subscribe(ctx)
		defer pubsub.Close()
		if _, err := pubsub.Receive(ctx); err != nil {
			logger.Warn("alert subscription failed", zap.Error(err))
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "hotspot",
					"data": json.RawMessage(msg.Payload),
				})
				if err != nil {
					logger.Debug("ws write error", zap.Error(err))
					return
				}
			}
		}
	}
}
