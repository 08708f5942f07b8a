// Package signal holds the process-wide logout notification. The gateway
// fires it after a forced session clear; the application root registers the
// handler that drops its authenticated state.
package signal

import "sync"

// LogoutSignal is a single-slot observer. Registering a handler replaces the
// previous one; firing with no handler is a no-op.
type LogoutSignal struct {
	mu      sync.Mutex
	handler func()
}

// Default is the process-wide signal. It starts empty.
var Default = &LogoutSignal{}

// Register installs h as the only handler. A nil h clears the slot.
func (s *LogoutSignal) Register(h func()) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Clear removes the handler. Safe to call repeatedly.
func (s *LogoutSignal) Clear() { s.Register(nil) }

// Registered reports whether a handler is installed.
func (s *LogoutSignal) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

// Fire invokes the current handler, if any, and reports whether one ran.
// The handler runs outside the lock so it may call Register or Clear.
func (s *LogoutSignal) Fire() bool {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h == nil {
		return false
	}
	h()
	return true
}
