package swaparoo

import (
	"github.com/swaparoo/swaparoo/asset"
)

// IssuerRegistry holds the ledger verification handles for the asset kinds
// the broker currently recognizes. Registration is additive only: kinds are
// never removed, so in-flight match tokens referencing a kind remain valid
// for the life of the broker.
type IssuerRegistry struct {
	policy  KindPolicy
	issuers map[asset.Kind]IssuerHandle
}

// NewIssuerRegistry creates an empty registry guarded by the operator's
// kind allow-list.
func NewIssuerRegistry(policy KindPolicy) *IssuerRegistry {
	return &IssuerRegistry{
		policy:  policy,
		issuers: make(map[asset.Kind]IssuerHandle),
	}
}

// Register adds an issuer handle to the registry. Re-registering an already
// known kind is a no-op, not an error. Kinds outside the allow-list fail
// with KindNotAllowedError.
func (r *IssuerRegistry) Register(issuer IssuerHandle) error {
	kind := issuer.Kind()

	if _, ok := r.issuers[kind]; ok {
		return nil
	}

	if !r.policy.Allow(kind) {
		return &KindNotAllowedError{Kind: kind}
	}

	r.issuers[kind] = issuer

	log.Infof("Registered issuer for asset kind %q", kind)

	return nil
}

// Recognizes reports whether the registry holds an issuer for the given
// kind.
func (r *IssuerRegistry) Recognizes(kind asset.Kind) bool {
	_, ok := r.issuers[kind]
	return ok
}

// Kinds returns all currently recognized asset kinds.
func (r *IssuerRegistry) Kinds() []asset.Kind {
	kinds := make([]asset.Kind, 0, len(r.issuers))
	for kind := range r.issuers {
		kinds = append(kinds, kind)
	}
	return kinds
}
