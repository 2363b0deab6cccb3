/*
Package session owns the client-side session identity.

Store is the single source of truth for the current credential and role. It is an
explicit value with a defined lifecycle (NewStore then Init) and writes every change
through to a ports.KVStore before returning.

Controller is the only component that starts or ends a session. Login, RegisterClient
and RegisterStaff share one saga:

	Anonymous -> authenticate -> CredentialOnly -> identity lookup -> Established

Logout makes a best-effort remote invalidation and then always clears the store.

Gate is the credential source handed to the transport. While a saga is in flight it
holds privileged callers back until the role is committed.
*/
package session
