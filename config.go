// Package gatekeep wires the verification service together: configuration,
// the HTTP server, and middleware. The verification pipeline itself lives
// in the verify package, with outbound Discord adapters in discord.
package gatekeep

import (
	"net"
	"strconv"
	"time"

	"gatekeep/internal/config"
	"gatekeep/logging"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Filename of the standard configuration file.
const ConfigFile = "gatekeep.yaml"

// KeyInfo contains metadata about a known configuration key.
// Re-exported from internal/config for public API use.
type KeyInfo = config.KeyInfo

// Config is a global koanf instance used to access application level
// configuration options.
//
// Config is loaded in the following order (later sources override earlier):
//  1. Registered defaults (applied lazily, see EnsureDefaultsLoaded)
//  2. Auto-discovered gatekeep.yaml, searched upward from the working dir
//  3. Environment variables with the GK__ prefix
//  4. Additional sources loaded via LoadConfigFile or LoadConfigDefaults
//
// Environment variable transformation:
//   - GK__SERVER__PORT → server.port
//   - GK__DISCORD__CLIENT_ID → discord.clientId
//   - GK__VERIFY__TOKEN_TTL → verify.tokenTtl
var Config = koanf.New(".")

const (
	defaultPort = 8000
	defaultHost = "localhost"
)

func init() {
	registerCoreConfigKeys()

	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("error loading config: " + err.Error())
		}
	}

	if err := Config.Load(env.Provider("GK__", ".", config.TransformEnv), nil); err != nil {
		panic("error loading env config: " + err.Error())
	}
}

// RegisterConfigKey registers a known configuration key with metadata, which
// documents the key and feeds startup validation and default loading.
func RegisterConfigKey(info KeyInfo) {
	config.RegisterKey(info)
}

// RegisterConfigKeys registers multiple configuration keys at once.
func RegisterConfigKeys(infos ...KeyInfo) {
	config.RegisterKeys(infos...)
}

// LoadConfigFile loads additional configuration from a YAML file into the
// global Config instance. Call this before creating the server.
func LoadConfigFile(path string) {
	if err := Config.Load(file.Provider(path), yaml.Parser()); err != nil {
		panic("error loading config file '" + path + "': " + err.Error())
	}
}

// LoadConfigDefaults loads default configuration values into the global
// Config instance. Values already present are overridden, so this is for
// application code that wants to force settings, not for package defaults.
func LoadConfigDefaults(defaults map[string]interface{}) {
	if err := Config.Load(confmap.Provider(defaults, "."), nil); err != nil {
		panic("error loading config defaults: " + err.Error())
	}
}

// ValidateConfig compares loaded config keys against the registry and logs a
// warning per unknown key, with suggestions for likely typos.
func ValidateConfig(logger logging.Logger) {
	for _, w := range config.ValidateKeys(Config) {
		logger.Warnw("config: "+w.String(), "key", w.Key)
	}
}

// ConfigString returns the string value for the given key.
func ConfigString(key string) string {
	config.EnsureDefaultsLoaded(Config)
	return Config.String(key)
}

// ConfigInt returns the int value for the given key.
func ConfigInt(key string) int {
	config.EnsureDefaultsLoaded(Config)
	return Config.Int(key)
}

// ConfigBool returns the bool value for the given key.
func ConfigBool(key string) bool {
	config.EnsureDefaultsLoaded(Config)
	return Config.Bool(key)
}

// ConfigDuration returns the duration value for the given key. Duration
// strings like "5m", "1h", "30s" are parsed automatically.
func ConfigDuration(key string) time.Duration {
	config.EnsureDefaultsLoaded(Config)
	return Config.Duration(key)
}

// ConfigStrings returns the string slice value for the given key.
func ConfigStrings(key string) []string {
	config.EnsureDefaultsLoaded(Config)
	return Config.Strings(key)
}

// ConfigExists checks if the given key exists in the configuration.
func ConfigExists(key string) bool {
	return Config.Exists(key)
}

func registerCoreConfigKeys() {
	config.RegisterKeys(
		KeyInfo{
			Key:         "name",
			Description: "User-facing name that identifies the service",
			Type:        "string",
			Default:     "Gatekeep",
		},
		KeyInfo{
			Key:         "address",
			Description: "External address for the service (used in URL construction)",
			Type:        "string",
			Default:     "http://" + net.JoinHostPort(defaultHost, strconv.Itoa(defaultPort)),
		},
		KeyInfo{
			Key:         "server.host",
			Description: "Host to bind the server to",
			Type:        "string",
			Default:     defaultHost,
		},
		KeyInfo{
			Key:         "server.port",
			Description: "Port to bind the server to",
			Type:        "int",
			Default:     defaultPort,
		},
		KeyInfo{
			Key:         "server.tls.certFile",
			Description: "Path to TLS certificate file",
			Type:        "string",
		},
		KeyInfo{
			Key:         "server.tls.keyFile",
			Description: "Path to TLS key file",
			Type:        "string",
		},
		KeyInfo{
			Key:         "server.security.xFramesOptions",
			Description: "X-Frame-Options header value",
			Type:        "string",
			Default:     "DENY",
		},
		KeyInfo{
			Key:         "server.security.hstsExpiration",
			Description: "HSTS max-age duration",
			Type:        "duration",
		},
		KeyInfo{
			Key:         "server.security.hstsIncludeSubdomains",
			Description: "Include subdomains in HSTS",
			Type:        "bool",
		},
		KeyInfo{
			Key:         "server.security.hstsPreload",
			Description: "Enable HSTS preload",
			Type:        "bool",
		},
	)
}
