package models

import "time"

// SystemMetrics is the instrumentation snapshot served to superadmins.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	PassesCreated            uint64    `json:"passesCreated"`
	PassesReturned           uint64    `json:"passesReturned"`
	PassConflicts            uint64    `json:"passConflicts"`
	PassesExpired            uint64    `json:"passesExpired"`
	RateLimited              uint64    `json:"rateLimited"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
