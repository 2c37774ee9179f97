// Package config implements the configuration key registry behind the
// public gatekeep config API: key metadata, defaults, environment variable
// mapping, and startup validation with typo suggestions.
package config

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// KeyInfo contains metadata about a known configuration key.
type KeyInfo struct {
	Key         string      // The full config key path (e.g., "server.port")
	Description string      // Human-readable description of what this config does
	Type        string      // Type hint: "string", "int", "bool", "duration", etc.
	Default     interface{} // Optional default value
}

var (
	registry   = make(map[string]KeyInfo)
	registryMu sync.RWMutex
)

// RegisterKey registers a known configuration key with metadata. Core code
// registers its keys from init() so the registry is complete before any
// config loading or validation happens.
func RegisterKey(info KeyInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[info.Key] = info
}

// RegisterKeys registers multiple configuration keys at once.
func RegisterKeys(infos ...KeyInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, info := range infos {
		registry[info.Key] = info
	}
}

// LookupKey returns metadata for a registered config key.
func LookupKey(key string) (KeyInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, exists := registry[key]
	return info, exists
}

// AllKeys returns all registered config keys sorted alphabetically.
func AllKeys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns a map of all registered config keys with their default
// values. Only keys that have a non-nil Default value are included.
func Defaults() map[string]interface{} {
	registryMu.RLock()
	defer registryMu.RUnlock()

	defaults := make(map[string]interface{})
	for key, info := range registry {
		if info.Default != nil {
			defaults[key] = info.Default
		}
	}
	return defaults
}

// FindSimilarKeys finds registered keys similar to the given key, for "did
// you mean" suggestions. Returns up to maxResults keys, most similar first.
// Keys within edit distance 3 qualify, with a bonus for keys sharing the
// same namespace prefix.
func FindSimilarKeys(key string, maxResults int) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	type scored struct {
		key   string
		score int // Lower is better.
	}

	var candidates []scored
	keyPrefix := keyNamespace(key)

	for registeredKey := range registry {
		score := levenshtein.ComputeDistance(key, registeredKey)
		if keyPrefix != "" && keyPrefix == keyNamespace(registeredKey) && score > 0 {
			score--
		}
		if score <= 3 {
			candidates = append(candidates, scored{registeredKey, score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].key < candidates[j].key
	})

	result := make([]string, 0, maxResults)
	for i := 0; i < len(candidates) && i < maxResults; i++ {
		result = append(result, candidates[i].key)
	}
	return result
}

// HasRegisteredPrefix reports whether some registered key is a namespace
// ancestor of the given key. Lets applications register a bare namespace so
// arbitrary sub-keys under it don't warn.
func HasRegisteredPrefix(key string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	parts := strings.Split(key, ".")
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		if _, exists := registry[prefix]; exists {
			return true
		}
	}
	return false
}

// keyNamespace extracts the namespace of a hierarchical key. For
// "server.security.corsOrigins", returns "server.security".
func keyNamespace(key string) string {
	lastDot := strings.LastIndex(key, ".")
	if lastDot == -1 {
		return ""
	}
	return key[:lastDot]
}
