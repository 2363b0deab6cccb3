package ports

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// Authenticator issues credentials. Each method returns the issued bearer token or an
// error wrapping domain.ErrAuthentication when the server rejects the request.
type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	RegisterClient(ctx context.Context, req domain.ClientRegistration) (string, error)
	RegisterStaff(ctx context.Context, req domain.StaffRegistration) (string, error)
}

// IdentityEndpoint returns the identity bound to the credential attached by the transport.
type IdentityEndpoint interface {
	Me(ctx context.Context) (*domain.Identity, error)
}

// SessionInvalidator revokes the credential attached by the transport.
type SessionInvalidator interface {
	Logout(ctx context.Context) error
}

// AuthEndpoints groups the remote calls the lifecycle controller depends on.
type AuthEndpoints interface {
	Authenticator
	IdentityEndpoint
	SessionInvalidator
}
