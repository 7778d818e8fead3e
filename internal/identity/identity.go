// Package identity verifies Google ID tokens and extracts the claims the
// catalog links users by.
package identity

import "context"

// Claims are the verified facts about the person behind a token.
type Claims struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// Verifier checks an opaque ID token with the identity provider.
//
// A rejected token yields an errors.CodeInvalidIssuer error; a provider that
// cannot be reached yields errors.CodeUnavailable. Implementations make one
// attempt and never retry.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claims, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, idToken string) (*Claims, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, idToken string) (*Claims, error) {
	return f(ctx, idToken)
}
