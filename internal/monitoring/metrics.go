package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks service counters: HTTP traffic, prediction outcomes,
// mapping fallbacks, cache effectiveness and latency percentiles.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64

	PredictionCount     int64
	VulnerableCount     int64
	BatchRequestCount   int64
	MappingErrorCount   int64
	RateLimitBlockCount int64

	StartTime time.Time

	// Latency samples for percentiles, last 1000 kept.
	responseTimes  []time.Duration
	responseTimesM sync.RWMutex

	statusCounts map[int]int64
	statusM      sync.RWMutex

	// Mapping fallbacks per questionnaire field, the service's main
	// data-quality signal.
	fallbackCounts map[string]int64
	fallbackM      sync.RWMutex

	predictionsByRisk map[string]int64
	riskM             sync.RWMutex
}

// NewMetrics creates a zeroed metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:         time.Now(),
		responseTimes:     make([]time.Duration, 0, 1000),
		statusCounts:      make(map[int]int64),
		fallbackCounts:    make(map[string]int64),
		predictionsByRisk: make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

func (m *Metrics) IncrementBatchRequest() {
	atomic.AddInt64(&m.BatchRequestCount, 1)
}

func (m *Metrics) IncrementMappingError() {
	atomic.AddInt64(&m.MappingErrorCount, 1)
}

func (m *Metrics) IncrementRateLimitBlock() {
	atomic.AddInt64(&m.RateLimitBlockCount, 1)
}

// RecordPrediction tracks one served prediction outcome.
func (m *Metrics) RecordPrediction(vulnerable bool, riskLevel string) {
	atomic.AddInt64(&m.PredictionCount, 1)
	if vulnerable {
		atomic.AddInt64(&m.VulnerableCount, 1)
	}

	m.riskM.Lock()
	m.predictionsByRisk[riskLevel]++
	m.riskM.Unlock()
}

// RecordFallback tracks an unmapped category for one questionnaire field.
func (m *Metrics) RecordFallback(field string) {
	m.fallbackM.Lock()
	m.fallbackCounts[field]++
	m.fallbackM.Unlock()
}

// RecordResponseTime keeps the last 1000 latency samples.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseTimesM.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesM.Unlock()
}

// RecordRequestByStatus tracks the response status distribution.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusM.Lock()
	m.statusCounts[statusCode]++
	m.statusM.Unlock()
}

// GetPercentileResponseTime computes a latency percentile over the sample
// window.
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesM.RLock()
	defer m.responseTimesM.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetFallbackStats returns a copy of per-field fallback counts.
func (m *Metrics) GetFallbackStats() map[string]int64 {
	m.fallbackM.RLock()
	defer m.fallbackM.RUnlock()

	out := make(map[string]int64, len(m.fallbackCounts))
	for k, v := range m.fallbackCounts {
		out[k] = v
	}
	return out
}

// GetStatusCodeDistribution returns request counts by HTTP status.
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.statusM.RLock()
	defer m.statusM.RUnlock()

	out := make(map[int]int64, len(m.statusCounts))
	for k, v := range m.statusCounts {
		out[k] = v
	}
	return out
}

// GetStats snapshots all counters for the metrics endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	predictions := atomic.LoadInt64(&m.PredictionCount)
	vulnerable := atomic.LoadInt64(&m.VulnerableCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}
	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}
	vulnerableRate := float64(0)
	if predictions > 0 {
		vulnerableRate = float64(vulnerable) / float64(predictions) * 100
	}

	m.riskM.RLock()
	byRisk := make(map[string]int64, len(m.predictionsByRisk))
	for k, v := range m.predictionsByRisk {
		byRisk[k] = v
	}
	m.riskM.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"total_requests":           requests,
		"error_count":              errors,
		"error_rate_percent":       errorRate,
		"cache_hits":               cacheHits,
		"cache_misses":             cacheMisses,
		"cache_hit_rate_percent":   cacheHitRate,
		"prediction_count":         predictions,
		"vulnerable_count":         vulnerable,
		"vulnerable_rate_percent":  vulnerableRate,
		"predictions_by_risk":      byRisk,
		"batch_request_count":      atomic.LoadInt64(&m.BatchRequestCount),
		"mapping_error_count":      atomic.LoadInt64(&m.MappingErrorCount),
		"rate_limit_blocks":        atomic.LoadInt64(&m.RateLimitBlockCount),
		"fallbacks_by_field":       m.GetFallbackStats(),
		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"start_time":               m.StartTime.Format(time.RFC3339),
	}
}

// Reset zeroes all counters. Test helper.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.PredictionCount, 0)
	atomic.StoreInt64(&m.VulnerableCount, 0)
	atomic.StoreInt64(&m.BatchRequestCount, 0)
	atomic.StoreInt64(&m.MappingErrorCount, 0)
	atomic.StoreInt64(&m.RateLimitBlockCount, 0)

	m.responseTimesM.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseTimesM.Unlock()

	m.statusM.Lock()
	m.statusCounts = make(map[int]int64)
	m.statusM.Unlock()

	m.fallbackM.Lock()
	m.fallbackCounts = make(map[string]int64)
	m.fallbackM.Unlock()

	m.riskM.Lock()
	m.predictionsByRisk = make(map[string]int64)
	m.riskM.Unlock()

	m.StartTime = time.Now()
}
