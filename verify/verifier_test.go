package verify

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"gatekeep/errors"
	"gatekeep/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	identity   Identity
	resolveErr error
	resolved   atomic.Int32
}

func (p *fakeProvider) AuthorizeURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (p *fakeProvider) ResolveIdentity(ctx context.Context, code string) (Identity, error) {
	p.resolved.Add(1)
	if p.resolveErr != nil {
		return Identity{}, p.resolveErr
	}
	return p.identity, nil
}

type fakeDirectory struct {
	grantErr error
	grants   atomic.Int32
}

func (d *fakeDirectory) GrantRole(ctx context.Context, userID string) error {
	d.grants.Add(1)
	return d.grantErr
}

func newTestVerifier(t *testing.T, provider IdentityProvider, directory Directory, opts ...VerifierOption) (*Verifier, *Store) {
	t.Helper()
	tokens := NewStore()
	return NewVerifier(tokens, provider, directory, nil, opts...), tokens
}

func TestBeginReturnsAuthorizeURL(t *testing.T) {
	v, tokens := newTestVerifier(t, &fakeProvider{}, &fakeDirectory{})

	url, err := v.Begin(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, url, "https://provider.test/authorize?state=")
	assert.Equal(t, 1, tokens.Len())
}

func TestBeginRequiresPrincipalWhenConfigured(t *testing.T) {
	v, _ := newTestVerifier(t, &fakeProvider{}, &fakeDirectory{}, WithRequirePrincipal(true))

	_, err := v.Begin(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingPrincipal)
	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatusCode(err))

	_, err = v.Begin(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestCompleteHappyPath(t *testing.T) {
	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada", Discriminator: "0001"}}
	directory := &fakeDirectory{}
	v, tokens := newTestVerifier(t, provider, directory)
	state := tokens.Issue("")

	identity, err := v.Complete(context.Background(), "code", state, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "ada#0001", identity.DisplayName())
	assert.Equal(t, int32(1), directory.grants.Load())
}

func TestCompleteMalformedCallback(t *testing.T) {
	provider := &fakeProvider{}
	v, tokens := newTestVerifier(t, provider, &fakeDirectory{})
	state := tokens.Issue("")

	for _, tc := range []struct{ code, state string }{
		{"", state},
		{"code", ""},
		{"", ""},
	} {
		_, err := v.Complete(context.Background(), tc.code, tc.state, "")
		require.ErrorIs(t, err, ErrMalformedCallback)
	}
	assert.Equal(t, int32(0), provider.resolved.Load(), "no outbound call for malformed callbacks")
	assert.Equal(t, 1, tokens.Len(), "token not consumed by malformed callbacks")
}

func TestCompleteReplayRefused(t *testing.T) {
	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada"}}
	v, tokens := newTestVerifier(t, provider, &fakeDirectory{})
	state := tokens.Issue("")

	_, err := v.Complete(context.Background(), "code", state, "")
	require.NoError(t, err)

	_, err = v.Complete(context.Background(), "code", state, "")
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, http.StatusBadRequest, errors.HTTPStatusCode(err))
}

func TestCompleteExchangeFailureConsumesToken(t *testing.T) {
	provider := &fakeProvider{resolveErr: Failure(ErrGrantExchange, stderrors.New("upstream 400"))}
	directory := &fakeDirectory{}
	v, tokens := newTestVerifier(t, provider, directory)
	state := tokens.Issue("")

	_, err := v.Complete(context.Background(), "code", state, "")
	require.ErrorIs(t, err, ErrGrantExchange)
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatusCode(err))
	assert.Equal(t, int32(0), directory.grants.Load())

	// The token was consumed by the failed attempt.
	_, err = v.Complete(context.Background(), "code", state, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCompletePrincipalMismatch(t *testing.T) {
	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada"}}
	directory := &fakeDirectory{}
	v, tokens := newTestVerifier(t, provider, directory)
	state := tokens.Issue("99")

	_, err := v.Complete(context.Background(), "code", state, "")
	require.ErrorIs(t, err, ErrPrincipalMismatch)
	assert.Equal(t, http.StatusForbidden, errors.HTTPStatusCode(err))
	assert.Equal(t, int32(0), directory.grants.Load(), "no grant after mismatch")
}

func TestCompleteBoundPrincipalMatch(t *testing.T) {
	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada"}}
	directory := &fakeDirectory{}
	v, tokens := newTestVerifier(t, provider, directory)
	state := tokens.Issue("42")

	_, err := v.Complete(context.Background(), "code", state, "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), directory.grants.Load())
}

func TestCompleteGrantFailure(t *testing.T) {
	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada"}}
	directory := &fakeDirectory{grantErr: Failure(ErrRoleGrant, ErrUnknownMember)}
	v, tokens := newTestVerifier(t, provider, directory)
	state := tokens.Issue("")

	_, err := v.Complete(context.Background(), "code", state, "")
	require.ErrorIs(t, err, ErrRoleGrant)
	assert.ErrorIs(t, err, ErrUnknownMember, "cause stays distinguishable")
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatusCode(err))
}

func TestCompletePublishesAuditEvent(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.New(ctx)
	events := make(chan AuditEvent, 1)
	bus.Subscribe(CompletedTopic, func(ctx context.Context, msg *eventbus.Message) error {
		events <- msg.Data.(AuditEvent)
		return nil
	})

	provider := &fakeProvider{identity: Identity{ID: "42", Username: "ada", Email: "ada@example.com"}}
	tokens := NewStore()
	v := NewVerifier(tokens, provider, &fakeDirectory{}, bus)
	state := tokens.Issue("42")

	_, err := v.Complete(ctx, "code", state, "203.0.113.9")
	require.NoError(t, err)
	require.NoError(t, bus.Wait(ctx))

	select {
	case ev := <-events:
		assert.NotEmpty(t, ev.EventID)
		assert.Equal(t, "ada", ev.DisplayName)
		assert.Equal(t, "42", ev.ExternalID)
		assert.Equal(t, "ada@example.com", ev.Email)
		assert.Equal(t, "42", ev.BoundPrincipal)
		assert.Equal(t, "203.0.113.9", ev.SourceAddr)
		assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Minute)
	default:
		t.Fatal("no audit event published")
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "ada#0001", Identity{Username: "ada", Discriminator: "0001"}.DisplayName())
	assert.Equal(t, "ada", Identity{Username: "ada", Discriminator: "0"}.DisplayName())
	assert.Equal(t, "ada", Identity{Username: "ada"}.DisplayName())
}
