package handler

import (
	"context"
	"net/http"
	"time"

	"pdvinova/internal/infra"
	"pdvinova/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthDeps are the dependencies probed by Health. Any of them may be nil.
type HealthDeps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Relay   RelayStatusSource
	Breaker *infra.CircuitBreaker
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The relay, the LLM breaker and the notification dead letter backlog are
// reported but do not fail the check.
func Health(d HealthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if d.DB == nil {
			dbStatus = "disabled"
		} else if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if d.Redis == nil {
			redisStatus = "disabled"
		} else if d.Redis.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus == "error" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if redisStatus == "connected" {
			if n, err := worker.DLQLength(ctx, d.Redis, worker.QueueNotifications); err == nil {
				body["dlq_notifications"] = n
			}
		}
		if d.Relay != nil {
			body["whatsapp"] = d.Relay.Status(ctx).Connected
		}
		if d.Breaker != nil {
			body["llm_breaker"] = d.Breaker.State().String()
		}
		c.JSON(status, body)
	}
}
