package ports

import "context"

// CredentialSource yields the bearer token to attach to an outbound request.
// An empty string means no Authorization header is sent.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

// Credential calls f(ctx).
func (f CredentialFunc) Credential(ctx context.Context) (string, error) {
	return f(ctx)
}
