package ratelimit

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// APIRateLimiter tracks daily call budgets for the external embedding and
// news search backends. A zero limit means unlimited.
type APIRateLimiter struct {
	mu          sync.Mutex
	embedCount  int
	searchCount int
	maxEmbed    int
	maxSearch   int
	resetTime   time.Time
}

// NewAPIRateLimiter creates a limiter with configurable daily budgets.
func NewAPIRateLimiter(maxEmbed, maxSearch int) *APIRateLimiter {
	return &APIRateLimiter{
		maxEmbed:  maxEmbed,
		maxSearch: maxSearch,
		resetTime: time.Now().Add(24 * time.Hour), // Reset daily
	}
}

// CanEmbed checks if we can make an embedding request.
func (rl *APIRateLimiter) CanEmbed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxEmbed > 0 && rl.embedCount >= rl.maxEmbed {
		log.Printf("⚠️ Embedding rate limit reached (%d/%d)", rl.embedCount, rl.maxEmbed)
		return false
	}
	return true
}

// UseEmbed increments the embedding counter.
func (rl *APIRateLimiter) UseEmbed() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxEmbed > 0 && rl.embedCount >= rl.maxEmbed {
		return fmt.Errorf("embedding rate limit exceeded")
	}

	rl.embedCount++
	return nil
}

// CanSearch checks if we can make a news search request.
func (rl *APIRateLimiter) CanSearch() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxSearch > 0 && rl.searchCount >= rl.maxSearch {
		log.Printf("⚠️ Search rate limit reached (%d/%d)", rl.searchCount, rl.maxSearch)
		return false
	}
	return true
}

// UseSearch increments the search counter.
func (rl *APIRateLimiter) UseSearch() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.maxSearch > 0 && rl.searchCount >= rl.maxSearch {
		return fmt.Errorf("search rate limit exceeded")
	}

	rl.searchCount++
	return nil
}

// GetStats returns current rate limiter statistics.
func (rl *APIRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"embed_used":   rl.embedCount,
		"embed_limit":  rl.maxEmbed,
		"search_used":  rl.searchCount,
		"search_limit": rl.maxSearch,
		"reset_time":   rl.resetTime,
	}
}

// checkReset resets counters if the reset time has passed.
func (rl *APIRateLimiter) checkReset() {
	if time.Now().After(rl.resetTime) {
		log.Printf("🔄 Resetting API rate limiter counters (embed=%d, search=%d)", rl.embedCount, rl.searchCount)
		rl.embedCount = 0
		rl.searchCount = 0
		rl.resetTime = time.Now().Add(24 * time.Hour)
	}
}
