package verify

import (
	"fmt"

	"gatekeep/errors"

	"google.golang.org/grpc/codes"
)

// Failure kinds for the verification pipeline. Each carries the status code
// that drives the HTTP response and a public message safe to render to the
// user; internal causes are attached via Failure and only reach the logs.
//
// Distinguish kinds with errors.Is.
var (
	// The service is configured to only verify members it issued links for,
	// and the request didn't name one.
	ErrMissingPrincipal = errors.NewC("verify: principal required but missing", codes.InvalidArgument).
				WithPublicMessage("This verification link is incomplete. Use the link you were given in Discord.")

	// The callback is missing the authorization code or state token.
	ErrMalformedCallback = errors.NewC("verify: callback missing code or state", codes.InvalidArgument).
				WithPublicMessage("The sign-in response was malformed. Start again from the verification link.")

	// The state token is unknown, already consumed, or expired. Replayed
	// callbacks land here.
	ErrInvalidToken = errors.NewC("verify: invalid or replayed state token", codes.InvalidArgument).
			WithPublicMessage("This verification link has expired or was already used. Start again from Discord.")

	// Exchanging the authorization code for an access token failed.
	ErrGrantExchange = errors.NewC("verify: authorization code exchange failed", codes.Internal).
				WithPublicMessage("We couldn't confirm your authorization with Discord. Please try again.")

	// The identity lookup with the exchanged credential failed.
	ErrIdentityFetch = errors.NewC("verify: identity fetch failed", codes.Internal).
				WithPublicMessage("We couldn't read your Discord profile. Please try again.")

	// The authenticated account is not the one the token was issued for.
	ErrPrincipalMismatch = errors.NewC("verify: identity does not match bound principal", codes.PermissionDenied).
				WithPublicMessage("This verification link was issued for a different account.")

	// The membership directory rejected or failed the role grant. The user's
	// identity was confirmed; only the grant is outstanding.
	ErrRoleGrant = errors.NewC("verify: role grant failed", codes.Internal).
			WithPublicMessage("Your identity was confirmed, but the role could not be granted. Please contact a moderator.")
)

// Failure attaches a cause to a failure kind, preserving the kind's status
// code and public message. Both the kind and the cause remain matchable via
// errors.Is.
func Failure(kind *errors.Error, cause error) error {
	if cause == nil {
		return kind
	}
	return errors.WithCode(fmt.Errorf("%w: %w", kind, cause), kind.Code()).
		WithHTTPStatusCode(kind.HTTPStatusCode()).
		WithPublicMessage(kind.PublicMessage())
}
