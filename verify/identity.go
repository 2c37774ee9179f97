package verify

import (
	"context"
	stderrors "errors"
)

// Identity is the authenticated account as reported by the identity provider.
type Identity struct {
	ID            string
	Username      string
	Discriminator string
	Email         string
}

// DisplayName renders the account the way users see it. Accounts migrated to
// unique usernames carry a "0" discriminator and are shown bare.
func (id Identity) DisplayName() string {
	if id.Discriminator == "" || id.Discriminator == "0" {
		return id.Username
	}
	return id.Username + "#" + id.Discriminator
}

// IdentityProvider performs the OAuth2 leg of verification: building the
// authorization URL and resolving a callback code into an identity.
type IdentityProvider interface {
	// AuthorizeURL returns the provider page to send the user to, carrying
	// state for callback correlation.
	AuthorizeURL(state string) string

	// ResolveIdentity exchanges an authorization code and fetches the
	// account it authenticates.
	ResolveIdentity(ctx context.Context, code string) (Identity, error)
}

// Directory is the membership backend a confirmed identity is enrolled in.
type Directory interface {
	// GrantRole assigns the configured role to userID. Granting a role the
	// member already holds is a no-op success.
	GrantRole(ctx context.Context, userID string) error
}

// Directory lookup failures adapters map their backend error codes onto.
// Wrapped in ErrRoleGrant they surface as internal failures but stay
// distinguishable with errors.Is.
var (
	ErrUnknownGuild  = stderrors.New("verify: guild not found")
	ErrUnknownMember = stderrors.New("verify: member not found in guild")
	ErrUnknownRole   = stderrors.New("verify: role not found in guild")
)
