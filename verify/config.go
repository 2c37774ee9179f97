package verify

import (
	"gatekeep"
	"gatekeep/eventbus"
)

func init() {
	gatekeep.RegisterConfigKeys(
		gatekeep.KeyInfo{
			Key:         "verify.tokenTtl",
			Description: "How long an issued verification link stays valid",
			Type:        "duration",
			Default:     DefaultTokenTTL,
		},
		gatekeep.KeyInfo{
			Key:         "verify.requirePrincipal",
			Description: "Reject verification requests that don't name the member they are for",
			Type:        "bool",
			Default:     false,
		},
		gatekeep.KeyInfo{
			Key:         "verify.templateDir",
			Description: "Directory of page templates overriding the built-in ones",
			Type:        "string",
		},
	)
}

// StoreFromConfig builds a token store honoring the configured TTL.
func StoreFromConfig(opts ...StoreOption) *Store {
	return NewStore(append([]StoreOption{
		WithTokenTTL(gatekeep.ConfigDuration("verify.tokenTtl")),
	}, opts...)...)
}

// VerifierFromConfig builds a verifier honoring the configured principal
// policy.
func VerifierFromConfig(tokens *Store, provider IdentityProvider, directory Directory, bus *eventbus.Bus) *Verifier {
	return NewVerifier(tokens, provider, directory, bus,
		WithRequirePrincipal(gatekeep.ConfigBool("verify.requirePrincipal")))
}
