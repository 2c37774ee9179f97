package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Warning describes a loaded configuration key that isn't registered,
// together with suggestions for similar registered keys.
type Warning struct {
	Key         string
	Suggestions []string
}

func (w Warning) String() string {
	msg := fmt.Sprintf("'%s' is not a known config key", w.Key)
	if len(w.Suggestions) == 1 {
		msg += fmt.Sprintf(", did you mean '%s'?", w.Suggestions[0])
	} else if len(w.Suggestions) > 1 {
		msg += fmt.Sprintf(", did you mean one of: %s?", strings.Join(w.Suggestions, ", "))
	}
	return msg
}

// ValidateKeys checks every loaded configuration key against the registry and
// returns a warning for each unknown key. Keys under a registered namespace
// prefix are allowed through without warning.
func ValidateKeys(config *koanf.Koanf) []Warning {
	var warnings []Warning
	for _, key := range config.Keys() {
		if _, exists := LookupKey(key); exists {
			continue
		}
		if HasRegisteredPrefix(key) {
			continue
		}
		warnings = append(warnings, Warning{
			Key:         key,
			Suggestions: FindSimilarKeys(key, 3),
		})
	}
	return warnings
}
