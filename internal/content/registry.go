package content

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Screen)
	registryMu sync.RWMutex
)

// Register adds a screen to the registry.
// Panics if a screen with the same key is already registered.
func Register(s Screen) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Key]; exists {
		panic(fmt.Sprintf("screen already registered: %s", s.Key))
	}
	if s.KeyField == "" {
		s.KeyField = "id"
	}
	registry[s.Key] = s
}

// Get returns a screen by key.
func Get(key string) (Screen, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[key]
	return s, ok
}

// Lookup is Get with an ErrUnknownScreen error.
func Lookup(key string) (Screen, error) {
	s, ok := Get(key)
	if !ok {
		return Screen{}, fmt.Errorf("%w: %s", ErrUnknownScreen, key)
	}
	return s, nil
}

// All returns every registered screen, sorted by group then key.
func All() []Screen {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Screen, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})
	return result
}

// ByGroup returns the screens of one group, sorted by key.
func ByGroup(group string) []Screen {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Screen
	for _, s := range registry {
		if s.Group == group {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Groups returns all group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, s := range registry {
		seen[s.Group] = true
	}
	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Count returns the number of registered screens.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes every screen. Tests use it to register fixtures.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Screen)
}
