/*
Package domain contains the core session model of the concierge client.

It defines the values the rest of the module moves around: the bearer Credential,
the server-assigned Role, the Identity returned by the "who am I" endpoint and the
Phase a session is in. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Snapshot: the (Credential, Role) pair held by the session store.
  - Phase: Anonymous, CredentialOnly or Established, derived from a Snapshot.
  - Identity: the current user record, including the role claim.
  - LifecycleHooks: callbacks fired by the lifecycle controller.
*/
package domain
