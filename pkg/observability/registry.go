package observability

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// registry holds observers that configuration can select by name.
// Applications register their own before resolving configuration.
var registry = struct {
	sync.RWMutex
	byName map[string]Observer
}{byName: map[string]Observer{"noop": NoOpObserver{}}}

// RegisterObserver makes obs selectable under name. Registering a name
// again replaces the earlier observer.
func RegisterObserver(name string, obs Observer) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("observability: observer name is empty")
	}
	if obs == nil {
		return fmt.Errorf("observability: observer %q is nil", name)
	}
	registry.Lock()
	defer registry.Unlock()
	registry.byName[name] = obs
	return nil
}

// GetObserver returns the observer registered under name. "noop" is always
// registered.
func GetObserver(name string) (Observer, error) {
	registry.RLock()
	obs, ok := registry.byName[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown observer %q (registered: %s)", name, strings.Join(ObserverNames(), ", "))
	}
	return obs, nil
}

// ObserverNames returns the registered names in sorted order.
func ObserverNames() []string {
	registry.RLock()
	defer registry.RUnlock()
	return slices.Sorted(maps.Keys(registry.byName))
}
