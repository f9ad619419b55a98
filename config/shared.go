// ABOUTME: Thread-safe holder for the current settings snapshot
// ABOUTME: Shared between the file watcher goroutine and the hosts that read it

package config

import "sync"

// SharedSettings guards one Settings snapshot
type SharedSettings struct {
	mu       sync.RWMutex
	settings Settings
}

// NewSharedSettings returns a holder seeded with s
func NewSharedSettings(s Settings) *SharedSettings {
	return &SharedSettings{settings: s}
}

// Get returns the current snapshot
func (s *SharedSettings) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Swap stores next and returns the update from the previous snapshot to it
func (s *SharedSettings) Swap(next Settings) SettingsUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := Diff(s.settings, next)
	if !u.IsEmpty() {
		s.settings = next
	}
	return u
}
