package services

import (
	"sync"

	"event-dashboard/models"
)

// Session owns the one dataset under analysis. Each successful load replaces
// it; readers always see a complete dataset.
type Session struct {
	mu      sync.RWMutex
	current *models.Dataset
}

func NewSession() *Session {
	return &Session{}
}

// Replace swaps in ds, dropping the previous dataset.
func (s *Session) Replace(ds *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ds
}

// Current returns the loaded dataset, or nil before the first load.
func (s *Session) Current() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
