// Package registry provides a global registry of built-in guest scripts.
// Demo packages register their scripts in init() functions, so the shell can
// list and resolve them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Scheme prefixes references that name a registered script instead of a file.
const Scheme = "demo:"

// Script is a registered guest script.
type Script struct {
	// ID is the unique identifier used in references (e.g., "bounce").
	ID string

	// Title is a human-readable name for display.
	Title string

	// Source is the Lua chunk.
	Source string
}

// ScriptInfo contains metadata about a registered script.
type ScriptInfo struct {
	ID    string
	Title string
}

// Ref returns the reference that resolves to this script.
func (i ScriptInfo) Ref() string {
	return Scheme + i.ID
}

var (
	scripts = make(map[string]Script)
	mu      sync.RWMutex
)

// Register adds a script to the registry.
// Typically called from an init() function.
// Panics if a script with the same ID is already registered.
func Register(id, title, source string) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := scripts[id]; exists {
		panic(fmt.Sprintf("registry: script %q already registered", id))
	}

	scripts[id] = Script{ID: id, Title: title, Source: source}
}

// List returns information about all registered scripts, sorted by ID.
func List() []ScriptInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ScriptInfo, 0, len(scripts))
	for id, s := range scripts {
		result = append(result, ScriptInfo{
			ID:    id,
			Title: s.Title,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Lookup returns the script registered under id.
// Returns an error if the ID is not registered.
func Lookup(id string) (Script, error) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := scripts[id]
	if !ok {
		return Script{}, fmt.Errorf("registry: unknown script %q", id)
	}

	return s, nil
}

// Exists checks if a script with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := scripts[id]
	return ok
}
