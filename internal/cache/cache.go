// Package cache memoizes prediction responses. The pipeline is
// deterministic, so identical answer payloads always produce identical
// results and a short TTL keeps responses fresh across artifact redeploys.
package cache

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moneave/vulnerability-monitor/internal/monitoring"
)

type item struct {
	data      []byte
	expiresAt time.Time
}

func (it *item) expired() bool {
	return time.Now().After(it.expiresAt)
}

// Cache is a TTL response cache keyed by request-body hash.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
}

// New creates a cache and starts its background sweeper.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]*item),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, it := range c.items {
			if it.expired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

func bodyKey(body []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(body))
}

// Get returns a live cached response.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || it.expired() {
		return nil, false
	}
	return it.data, true
}

// Set stores a response under the key for one TTL.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	c.items[key] = &item{data: data, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*item)
	c.mu.Unlock()
}

// Size returns the number of stored entries, live or expired.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats describes the cache for its stats endpoint.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	for _, it := range c.items {
		if it.expired() {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware serves POST /predict from cache when the exact body was seen
// within the TTL. Batch requests are not cached; their bodies rarely repeat.
func (c *Cache) Middleware(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || ctx.Request.URL.Path != "/predict" {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		key := bodyKey(body)
		if data, found := c.Get(key); found {
			metrics.IncrementCacheHit()
			ctx.Set("cache_hit", true)
			ctx.Data(http.StatusOK, "application/json", data)
			ctx.Abort()
			return
		}
		metrics.IncrementCacheMiss()

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.Set(key, wrapper.body.Bytes())
		}
	}
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
