package domain

import "errors"

// ErrAuthentication is returned when the server rejects credentials or a registration.
// No session state is changed when a lifecycle operation fails with it.
var ErrAuthentication = errors.New("authentication failed")

// ErrIdentityLookup is returned when the identity endpoint fails after a credential was issued.
// The credential stays committed.
var ErrIdentityLookup = errors.New("identity lookup failed")

// ErrStorage is returned when the durable persistence surface is unavailable.
// In-memory session state is still updated.
var ErrStorage = errors.New("session storage unavailable")

// ErrSagaInProgress is returned when a lifecycle operation starts while another one is in flight.
var ErrSagaInProgress = errors.New("session lifecycle operation already in progress")

// ErrRoleWithoutCredential is returned when a role is set while no credential is present.
var ErrRoleWithoutCredential = errors.New("role requires a credential")

// ErrKeyNotFound is returned by key-value stores when a key has no durable entry.
var ErrKeyNotFound = errors.New("key not found")

// Transport failure kinds.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("request rejected")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
)
