package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_FixedWindow(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	now := time.Unix(1_700_000_000, 0)
	r := gin.New()
	r.Use(redisRateLimit(client, 1, 1, time.Second, func() time.Time { return now }))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/r", "10.1.0.1"))
	require.Equal(t, http.StatusOK, hit(r, "/r", "10.1.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/r", "10.1.0.1"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, hit(r, "/r", "10.1.0.1"))
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 1, 1, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/r", "10.1.0.2"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/r", "10.1.0.2"))
}
