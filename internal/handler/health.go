package handler

import (
	"context"
	"net/http"
	"time"

	"backoffice/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks the app DB, the ERP replica, Redis and the sync circuit breaker;
// never exposes credentials or internals.
func Health(db, erpDB *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := pingGorm(ctx, db)
		erpStatus := pingGorm(ctx, erpDB)

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		// The ERP replica being down degrades sync but not the core workflow,
		// so it does not flip the overall status.
		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":           status == http.StatusOK,
			"db":           dbStatus,
			"erp_replica":  erpStatus,
			"redis":        redisStatus,
			"sync_breaker": cb.State().String(),
		})
	}
}

func pingGorm(ctx context.Context, db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "error"
	}
	return "connected"
}
