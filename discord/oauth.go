// Package discord adapts Discord's OAuth2 and guild REST APIs to the
// verification pipeline: identity provider, membership directory, and
// webhook audit notifier.
package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"gatekeep/errors"
	"gatekeep/logging"
	"gatekeep/verify"
)

const (
	// DefaultAPIBase is Discord's REST API root.
	DefaultAPIBase = "https://discord.com/api"

	// DefaultAuthorizeURL is the page users authorize the app on.
	DefaultAuthorizeURL = "https://discord.com/oauth2/authorize"

	// DefaultTimeout bounds each outbound Discord call.
	DefaultTimeout = 10 * time.Second
)

// OAuthClient implements verify.IdentityProvider against Discord.
type OAuthClient struct {
	conf    *oauth2.Config
	apiBase string
	client  *http.Client
}

// OAuthOption configures an OAuthClient.
type OAuthOption func(*OAuthClient)

// WithOAuthEndpoints overrides the authorize page and API base, for tests
// and proxied deployments.
func WithOAuthEndpoints(authorizeURL, apiBase string) OAuthOption {
	return func(c *OAuthClient) {
		c.conf.Endpoint.AuthURL = authorizeURL
		c.apiBase = apiBase
		c.conf.Endpoint.TokenURL = apiBase + "/oauth2/token"
	}
}

// WithOAuthTimeout bounds each outbound call.
func WithOAuthTimeout(timeout time.Duration) OAuthOption {
	return func(c *OAuthClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// NewOAuthClient returns a provider for the given OAuth2 app. redirectURL
// must match the app's registered callback.
func NewOAuthClient(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *OAuthClient {
	c := &OAuthClient{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   DefaultAuthorizeURL,
				TokenURL:  DefaultAPIBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: DefaultAPIBase,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizeURL returns the Discord consent page carrying state.
func (c *OAuthClient) AuthorizeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ResolveIdentity exchanges the authorization code and fetches the account
// it authenticates.
func (c *OAuthClient) ResolveIdentity(ctx context.Context, code string) (verify.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)

	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return verify.Identity{}, verify.Failure(verify.ErrGrantExchange,
			errors.Errorf("discord: token exchange failed: %s", err))
	}
	logging.Debug(ctx, "discord: token exchange completed")

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	resp, err := c.conf.Client(ctx, token).Do(req)
	if err != nil {
		return verify.Identity{}, verify.Failure(verify.ErrIdentityFetch,
			errors.Errorf("discord: failed to fetch user: %s", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return verify.Identity{}, verify.Failure(verify.ErrIdentityFetch,
			errors.Errorf("discord: user fetch returned status %d", resp.StatusCode))
	}

	var user struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
		Email         string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return verify.Identity{}, verify.Failure(verify.ErrIdentityFetch,
			errors.Errorf("discord: malformed user response: %s", err))
	}
	logging.Debugw(ctx, "discord: fetched user", "userId", user.ID)

	return verify.Identity{
		ID:            user.ID,
		Username:      user.Username,
		Discriminator: user.Discriminator,
		Email:         user.Email,
	}, nil
}
