// Package auth implements the authentication, identity and session-invalidation endpoints
// of the booking API on top of the transport client.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/transport"
)

const (
	PathLogin          = "/auth/token/login/"
	PathLogout         = "/auth/token/logout/"
	PathRegisterClient = "/auth/client/register/"
	PathRegisterStaff  = "/auth/staff/register/"
	PathMe             = "/auth/users/me/"
)

// Requester is the subset of *transport.Client the endpoints use.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
}

// Endpoints talks to the auth routes. The credential for Me and Logout is attached by the
// Requester, never passed explicitly.
type Endpoints struct {
	client Requester
}

var _ ports.AuthEndpoints = (*Endpoints)(nil)

// New creates Endpoints over client.
func New(client Requester) *Endpoints {
	return &Endpoints{client: client}
}

type tokenResponse struct {
	Token string `json:"auth_token"`
}

// Login exchanges username and password for a token.
func (e *Endpoints) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	return e.issue(ctx, PathLogin, req, false)
}

// RegisterClient creates a guest account and returns its token.
func (e *Endpoints) RegisterClient(ctx context.Context, req domain.ClientRegistration) (string, error) {
	return e.issue(ctx, PathRegisterClient, req, false)
}

// RegisterStaff creates a staff account with an invitation code and returns its token.
// The server answers an unknown hotel with 404, which counts as a rejection here.
func (e *Endpoints) RegisterStaff(ctx context.Context, req domain.StaffRegistration) (string, error) {
	return e.issue(ctx, PathRegisterStaff, req, true)
}

// Me returns the identity bound to the attached credential.
func (e *Endpoints) Me(ctx context.Context) (*domain.Identity, error) {
	data, err := e.client.Get(ctx, PathMe, nil)
	if err != nil {
		return nil, err
	}
	var id domain.Identity
	if err := transport.DecodeJSON(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Logout revokes the attached credential on the server.
func (e *Endpoints) Logout(ctx context.Context) error {
	_, err := e.client.Post(ctx, PathLogout, nil)
	return err
}

func (e *Endpoints) issue(ctx context.Context, path string, payload any, notFoundRejects bool) (string, error) {
	data, err := e.client.Post(ctx, path, payload)
	if err != nil {
		switch {
		case rejected(err), notFoundRejects && errors.Is(err, domain.ErrNotFound):
			return "", fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
		case errors.Is(err, domain.ErrNotFound):
			return "", fmt.Errorf("%w (is base_url pointing at the booking API?)", err)
		}
		return "", err
	}

	var resp tokenResponse
	if err := transport.DecodeJSON(data, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: response carries no auth_token", domain.ErrAuthentication)
	}
	return resp.Token, nil
}

// rejected reports whether the server refused the request itself, as opposed to being
// unreachable or failing internally.
func rejected(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrUnauthorized)
}
