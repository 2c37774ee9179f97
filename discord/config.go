package discord

import (
	"strings"

	"gatekeep"
)

func init() {
	gatekeep.RegisterConfigKeys(
		gatekeep.KeyInfo{
			Key:         "discord.clientId",
			Description: "Discord OAuth2 application client ID",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.clientSecret",
			Description: "Discord OAuth2 application client secret",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.botToken",
			Description: "Bot token used for guild member and role operations",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.guildId",
			Description: "Guild that verified members are enrolled in",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.roleId",
			Description: "Role granted to verified members",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.webhookUrl",
			Description: "Webhook that receives verification audit notices (optional)",
			Type:        "string",
		},
		gatekeep.KeyInfo{
			Key:         "discord.apiBase",
			Description: "Discord REST API root",
			Type:        "string",
			Default:     DefaultAPIBase,
		},
		gatekeep.KeyInfo{
			Key:         "discord.authorizeUrl",
			Description: "Discord OAuth2 authorization page",
			Type:        "string",
			Default:     DefaultAuthorizeURL,
		},
		gatekeep.KeyInfo{
			Key:         "discord.timeout",
			Description: "Timeout for each outbound Discord call",
			Type:        "duration",
			Default:     DefaultTimeout,
		},
	)
}

// OAuthClientFromConfig builds an OAuthClient from the discord.* config
// keys. The callback URL is derived from the service address.
func OAuthClientFromConfig() *OAuthClient {
	return NewOAuthClient(
		gatekeep.ConfigString("discord.clientId"),
		gatekeep.ConfigString("discord.clientSecret"),
		strings.TrimSuffix(gatekeep.ConfigString("address"), "/")+"/callback",
		WithOAuthEndpoints(
			gatekeep.ConfigString("discord.authorizeUrl"),
			gatekeep.ConfigString("discord.apiBase"),
		),
		WithOAuthTimeout(gatekeep.ConfigDuration("discord.timeout")),
	)
}

// DirectoryFromConfig builds a Directory from the discord.* config keys.
func DirectoryFromConfig() *Directory {
	return NewDirectory(
		gatekeep.ConfigString("discord.botToken"),
		gatekeep.ConfigString("discord.guildId"),
		gatekeep.ConfigString("discord.roleId"),
		WithDirectoryAPIBase(gatekeep.ConfigString("discord.apiBase")),
		WithDirectoryTimeout(gatekeep.ConfigDuration("discord.timeout")),
	)
}

// NotifierFromConfig builds a Notifier from the discord.* config keys, or
// returns nil when no webhook is configured.
func NotifierFromConfig() *Notifier {
	url := gatekeep.ConfigString("discord.webhookUrl")
	if url == "" {
		return nil
	}
	return NewNotifier(url, WithNotifierTimeout(gatekeep.ConfigDuration("discord.timeout")))
}
