package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldmind/fieldmind-go-backend/internal/db"
)

var ctx = context.Background()

// RateLimit caps requests per client IP inside a fixed one-minute window,
// backed by a Redis counter. Redis being down never blocks the inspection
// workflow: the request is allowed through.
func RateLimit(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := db.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			db.RedisClient.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
