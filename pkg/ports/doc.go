/*
Package ports defines the driven ports (interfaces) of the concierge session core.

These interfaces decouple the session store and lifecycle controller from the
persistence backends and the remote booking API.

# Key Interfaces

  - KVStore: the durable key-value surface the session store writes through to.
  - DistributedLocker: serialises lifecycle operations across processes sharing a store.
  - CredentialSource: what the transport consults before attaching the bearer token.
  - Authenticator, IdentityEndpoint, SessionInvalidator: the remote auth endpoints.
*/
package ports
