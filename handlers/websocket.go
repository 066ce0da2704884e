package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventSource is satisfied by services.EventBroker.
type EventSource interface {
	Available() bool
	Subscribe(ctx context.Context) *redis.PubSub
}

// LiveWebSocket streams every stored prediction to the client as it lands.
func LiveWebSocket(events EventSource, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !events.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed is disabled: REDIS_URL is not set"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("Websocket upgrade failed", zap.Error(err))
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

		pubsub := events.Subscribe(ctx)
		defer pubsub.Close()

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
					"type": "prediction",
					"data": json.RawMessage(msg.Payload),
				})
				if err != nil {
					log.Debug("Websocket write failed", zap.Error(err))
					return
				}
			}
		}
	}
}
