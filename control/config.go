// control/config.go
//
// ConfigStore backs the server package's runtime config overlay: the
// set of server.Config knobs (IOBufferSize, ChannelCapacity,
// ReadTimeout, WriteTimeout, NUMANode) an operator can retune via
// Server.UpdateConfig without restarting the listener. server.Server
// seeds it from server.Config.Overlay() at startup and registers an
// OnReload listener that folds GetSnapshot() back onto its runtime
// config snapshot.
package control

import (
	"sync"
	"time"
)

// ConfigStore is a dynamic key/value overlay with atomic snapshot and
// reload-listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	overlay   map[string]any
	listeners []func()
}

// NewConfigStore builds an empty overlay.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		overlay:   make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of the current overlay values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.overlay))
	for k, v := range cs.overlay {
		out[k] = v
	}
	return out
}

// SetConfig merges newValues into the overlay and runs every
// registered reload listener. Listeners run synchronously, on the
// caller's goroutine, so a caller that reads GetSnapshot() or a
// dependent runtime field immediately after SetConfig returns observes
// the update — there is no async propagation delay to race against.
func (cs *ConfigStore) SetConfig(newValues map[string]any) {
	cs.mu.Lock()
	for k, v := range newValues {
		cs.overlay[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnReload registers fn to run on every subsequent SetConfig call.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// IntValue returns the overlay's int value for key, if present and
// correctly typed.
func (cs *ConfigStore) IntValue(key string) (int, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.overlay[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// DurationValue returns the overlay's time.Duration value for key, if
// present and correctly typed.
func (cs *ConfigStore) DurationValue(key string) (time.Duration, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.overlay[key]
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}
