package storage

import (
	"sync"
	"time"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the outcome of the most recent write to a sink
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager manages sink health status in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]*Health
}

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]*Health),
	}
}

// Record stores the result of a write to the named sink
func (hm *HealthManager) Record(sink string, err error) {
	h := &Health{LastCheck: time.Now(), Status: StatusHealthy, Message: "last store succeeded"}
	if err != nil {
		h.Status = StatusUnhealthy
		h.Message = "last store failed"
		h.Error = err.Error()
	}
	hm.UpdateHealth(sink, h)
}

// UpdateHealth updates the health status for a sink
func (hm *HealthManager) UpdateHealth(sink string, health *Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	healthCopy := *health
	hm.health[sink] = &healthCopy
}

// GetHealth retrieves the health status for a specific sink
func (hm *HealthManager) GetHealth(sink string) (*Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	health, exists := hm.health[sink]
	if !exists {
		return nil, false
	}

	h := *health
	return &h, true
}

// GetAllHealth retrieves all sink health statuses
func (hm *HealthManager) GetAllHealth() map[string]*Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]*Health, len(hm.health))
	for k, v := range hm.health {
		h := *v
		result[k] = &h
	}

	return result
}

// IsHealthy checks if a sink's last write succeeded within maxAge
func (hm *HealthManager) IsHealthy(sink string, maxAge time.Duration) bool {
	health, exists := hm.GetHealth(sink)
	if !exists {
		return false
	}

	// Check if health data is stale
	if time.Since(health.LastCheck) > maxAge {
		return false
	}

	return health.Status == StatusHealthy
}
