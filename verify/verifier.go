package verify

import (
	"context"
	"time"

	"gatekeep/eventbus"
	"gatekeep/logging"

	"github.com/google/uuid"
)

// Verifier runs the verification pipeline: issuing correlation tokens,
// redeeming callbacks, confirming identity, and enrolling the member.
type Verifier struct {
	tokens           *Store
	provider         IdentityProvider
	directory        Directory
	bus              *eventbus.Bus
	requirePrincipal bool
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithRequirePrincipal makes Begin reject requests that don't name a
// principal, so every issued token is bound.
func WithRequirePrincipal(required bool) VerifierOption {
	return func(v *Verifier) {
		v.requirePrincipal = required
	}
}

// NewVerifier wires the pipeline. The bus is optional; without one,
// completed verifications simply aren't announced.
func NewVerifier(tokens *Store, provider IdentityProvider, directory Directory, bus *eventbus.Bus, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		tokens:    tokens,
		provider:  provider,
		directory: directory,
		bus:       bus,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Begin issues a correlation token for principal and returns the provider
// authorization URL to redirect the user to. An empty principal issues an
// unbound token unless the verifier requires one.
func (v *Verifier) Begin(ctx context.Context, principal string) (string, error) {
	if principal == "" && v.requirePrincipal {
		return "", ErrMissingPrincipal
	}
	token := v.tokens.Issue(principal)
	logging.Debugw(ctx, "issued verification token", "bound", principal != "")
	return v.provider.AuthorizeURL(token), nil
}

// Complete processes a provider callback. On success the member holds the
// role and an AuditEvent has been published; the returned identity is shown
// to the user. sourceAddr is recorded in the audit trail only.
func (v *Verifier) Complete(ctx context.Context, code, state, sourceAddr string) (Identity, error) {
	if code == "" || state == "" {
		return Identity{}, ErrMalformedCallback
	}

	binding, ok := v.tokens.TryConsume(state)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	identity, err := v.provider.ResolveIdentity(ctx, code)
	if err != nil {
		return Identity{}, err
	}

	if binding.Principal != "" && binding.Principal != identity.ID {
		logging.Warnw(ctx, "verification principal mismatch",
			"bound", binding.Principal, "authenticated", identity.ID)
		return Identity{}, ErrPrincipalMismatch
	}

	if err := v.directory.GrantRole(ctx, identity.ID); err != nil {
		return Identity{}, err
	}

	logging.Infow(ctx, "member verified",
		"user", identity.DisplayName(), "userId", identity.ID)

	if v.bus != nil {
		v.bus.Publish(CompletedTopic, AuditEvent{
			EventID:        uuid.NewString(),
			DisplayName:    identity.DisplayName(),
			ExternalID:     identity.ID,
			Email:          identity.Email,
			BoundPrincipal: binding.Principal,
			SourceAddr:     sourceAddr,
			Timestamp:      time.Now().UTC(),
		})
	}

	return identity, nil
}
