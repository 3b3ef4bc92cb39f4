package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesProcessed      int64
	EmbeddingsStored       int64
	DuplicatesSkipped      int64
	EmbeddingFailures      int64
	RecommendationsServed  int64
	FallbackRecommendation int64
	WriteBacksQueued       int64
	WriteBacksDropped      int64

	// Timings
	LastBatchDuration    time.Duration
	TotalBatchDuration   time.Duration
	AverageBatchDuration time.Duration
	BatchCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementArticlesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesProcessed++
}

func (m *Metrics) IncrementEmbeddingsStored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingsStored++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementEmbeddingFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingFailures++
}

func (m *Metrics) IncrementRecommendationsServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecommendationsServed++
}

func (m *Metrics) IncrementFallbackRecommendations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FallbackRecommendation++
}

func (m *Metrics) IncrementWriteBacksQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteBacksQueued++
}

func (m *Metrics) IncrementWriteBacksDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteBacksDropped++
}

func (m *Metrics) RecordBatchDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastBatchDuration = duration
	m.TotalBatchDuration += duration
	m.BatchCount++

	if m.BatchCount > 0 {
		m.AverageBatchDuration = m.TotalBatchDuration / time.Duration(m.BatchCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_processed":        m.ArticlesProcessed,
		"embeddings_stored":         m.EmbeddingsStored,
		"duplicates_skipped":        m.DuplicatesSkipped,
		"embedding_failures":        m.EmbeddingFailures,
		"recommendations_served":    m.RecommendationsServed,
		"fallback_recommendations":  m.FallbackRecommendation,
		"writebacks_queued":         m.WriteBacksQueued,
		"writebacks_dropped":        m.WriteBacksDropped,
		"last_batch_duration_ms":    m.LastBatchDuration.Milliseconds(),
		"average_batch_duration_ms": m.AverageBatchDuration.Milliseconds(),
		"last_run_time":             m.LastRunTime.Format(time.RFC3339),
		"last_error_time":           m.LastErrorTime.Format(time.RFC3339),
		"last_error":                m.LastError,
		"is_healthy":                m.IsHealthy,
	}
}
