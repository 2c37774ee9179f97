package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"gatekeep/errors"
	"gatekeep/logging"
	"gatekeep/verify"
)

// Discord JSON error codes.
// https://discord.com/developers/docs/topics/opcodes-and-status-codes#json
const (
	codeUnknownGuild  = 10004
	codeUnknownMember = 10007
	codeUnknownRole   = 10011
)

// Directory grants a fixed guild role via Discord's REST API, authenticated
// as a bot. Implements verify.Directory.
type Directory struct {
	botToken string
	guildID  string
	roleID   string
	apiBase  string
	client   *http.Client
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithDirectoryAPIBase overrides the REST API root, for tests.
func WithDirectoryAPIBase(apiBase string) DirectoryOption {
	return func(d *Directory) {
		d.apiBase = apiBase
	}
}

// WithDirectoryTimeout bounds each outbound call.
func WithDirectoryTimeout(timeout time.Duration) DirectoryOption {
	return func(d *Directory) {
		if timeout > 0 {
			d.client.Timeout = timeout
		}
	}
}

// NewDirectory returns a Directory granting roleID in guildID.
func NewDirectory(botToken, guildID, roleID string, opts ...DirectoryOption) *Directory {
	d := &Directory{
		botToken: botToken,
		guildID:  guildID,
		roleID:   roleID,
		apiBase:  DefaultAPIBase,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GrantRole assigns the configured role to userID. A member who already
// holds the role is a no-op success with no mutation.
func (d *Directory) GrantRole(ctx context.Context, userID string) error {
	member, err := d.fetchMember(ctx, userID)
	if err != nil {
		return err
	}
	for _, role := range member.Roles {
		if role == d.roleID {
			logging.Debugw(ctx, "discord: member already holds role", "userId", userID)
			return nil
		}
	}

	url := d.apiBase + "/guilds/" + d.guildID + "/members/" + userID + "/roles/" + d.roleID
	req, _ := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	req.Header.Set("Authorization", "Bot "+d.botToken)
	resp, err := d.client.Do(req)
	if err != nil {
		return verify.Failure(verify.ErrRoleGrant,
			errors.Errorf("discord: role assignment failed: %s", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return verify.Failure(verify.ErrRoleGrant, d.apiError(resp))
	}
	logging.Infow(ctx, "discord: role granted", "userId", userID, "roleId", d.roleID)
	return nil
}

type guildMember struct {
	Roles []string `json:"roles"`
}

func (d *Directory) fetchMember(ctx context.Context, userID string) (guildMember, error) {
	url := d.apiBase + "/guilds/" + d.guildID + "/members/" + userID
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bot "+d.botToken)
	resp, err := d.client.Do(req)
	if err != nil {
		return guildMember{}, verify.Failure(verify.ErrRoleGrant,
			errors.Errorf("discord: member lookup failed: %s", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return guildMember{}, verify.Failure(verify.ErrRoleGrant, d.apiError(resp))
	}

	var member guildMember
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return guildMember{}, verify.Failure(verify.ErrRoleGrant,
			errors.Errorf("discord: malformed member response: %s", err))
	}
	return member, nil
}

// apiError maps a non-success Discord response to an error, surfacing known
// JSON error codes as the directory sentinels.
func (d *Directory) apiError(resp *http.Response) error {
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch body.Code {
	case codeUnknownGuild:
		return verify.ErrUnknownGuild
	case codeUnknownMember:
		return verify.ErrUnknownMember
	case codeUnknownRole:
		return verify.ErrUnknownRole
	}
	return errors.Errorf("discord: api error, status %d, code %d: %s",
		resp.StatusCode, body.Code, body.Message)
}
