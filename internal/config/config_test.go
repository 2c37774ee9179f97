package config

import (
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformEnv(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"GK__SERVER__PORT", "server.port"},
		{"GK__DISCORD__CLIENT_ID", "discord.clientId"},
		{"GK__DISCORD__CLIENT_SECRET", "discord.clientSecret"},
		{"GK__VERIFY__TOKEN_TTL", "verify.tokenTtl"},
		{"GK__VERIFY__REQUIRE_PRINCIPAL", "verify.requirePrincipal"},
		{"GK__NAME", "name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TransformEnv(tt.env), tt.env)
	}
}

func TestFindSimilarKeys(t *testing.T) {
	RegisterKeys(
		KeyInfo{Key: "discord.clientId", Type: "string"},
		KeyInfo{Key: "discord.clientSecret", Type: "string"},
		KeyInfo{Key: "discord.guildId", Type: "string"},
	)

	got := FindSimilarKeys("discord.clientid", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "discord.clientId", got[0])

	assert.Empty(t, FindSimilarKeys("completely.unrelated.keyname", 3))
}

func TestValidateKeys(t *testing.T) {
	RegisterKeys(
		KeyInfo{Key: "verify.tokenTtl", Type: "duration"},
		KeyInfo{Key: "custom"},
	)

	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(map[string]interface{}{
		"verify.tokenTtl": "10m",
		"verify.tokenTll": "5m",
		"custom.anything": true,
	}, "."), nil))

	warnings := ValidateKeys(k)
	require.Len(t, warnings, 1)
	assert.Equal(t, "verify.tokenTll", warnings[0].Key)
	assert.Contains(t, warnings[0].Suggestions, "verify.tokenTtl")
	assert.Contains(t, warnings[0].String(), "did you mean")
}

func TestDefaults(t *testing.T) {
	RegisterKey(KeyInfo{Key: "server.port", Type: "int", Default: 8000})
	RegisterKey(KeyInfo{Key: "server.host", Type: "string"})

	d := Defaults()
	assert.Equal(t, 8000, d["server.port"])
	_, hasHost := d["server.host"]
	assert.False(t, hasHost, "keys without defaults should be absent")
}
