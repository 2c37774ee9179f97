package config

import (
	"sync"

	"github.com/knadh/koanf/v2"
)

var defaultsLoaded sync.Once

// EnsureDefaultsLoaded loads registered defaults into the koanf instance if
// not already loaded. Only sets values for keys that don't already exist, so
// file and environment sources win over defaults.
//
// Call after all packages have registered their config keys, typically from
// the server constructor. Thread-safe via sync.Once.
func EnsureDefaultsLoaded(k *koanf.Koanf) {
	defaultsLoaded.Do(func() {
		for key, val := range Defaults() {
			if !k.Exists(key) {
				k.Set(key, val)
			}
		}
	})
}
