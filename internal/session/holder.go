// Package session tracks the signed-in technician for the lifetime of the
// process. The Session value itself is immutable; the holder only swaps
// which one is current.
package session

import (
	"sync"

	"provider-onboarding/internal/models"
)

type Holder struct {
	mu      sync.RWMutex
	current *models.Session
}

func NewHolder() *Holder {
	return &Holder{}
}

// Set installs a resolved session, replacing any previous one.
func (h *Holder) Set(s models.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = &s
}

// Current returns the active session, if any.
func (h *Holder) Current() (models.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return models.Session{}, false
	}
	return *h.current, true
}

// Clear drops the active session (logout).
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}
